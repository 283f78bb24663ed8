package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"teamrat-service/internal/app"
	"teamrat-service/internal/domain"
)

// Handler exposes the RAT use cases as a JSON API. It is thin plumbing: all
// state transitions live in the domain, all persistence behind the service.
type Handler struct {
	service *app.RATService
	logger  *slog.Logger
}

func NewHandler(service *app.RATService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes builds the router. The teacher's private id never appears in
// student-facing responses.
func (h *Handler) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(cors.AllowAll().Handler)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/api", func(r chi.Router) {
		r.Post("/rats", h.handleCreate)
		r.Get("/rats/{publicID}", h.handleStudentView)
		r.Post("/rats/{publicID}/grab/{team}", h.handleGrab)

		r.Get("/cards/{cardID}", h.handleGetCard)
		r.Post("/cards/{cardID}/uncover", h.handleUncover)

		r.Get("/teacher/{privateID}", h.handleTeacherView)
		r.Get("/teacher/{privateID}/download", h.handleDownload)
	})

	return mux
}

type createRequest struct {
	Label        string `json:"label"`
	Teams        int    `json:"teams"`
	Questions    int    `json:"questions"`
	Alternatives int    `json:"alternatives"`
	Solution     string `json:"solution"`
	Creator      string `json:"creator"`
}

type createResponse struct {
	PrivateID    string `json:"private_id"`
	PublicID     string `json:"public_id"`
	Label        string `json:"label"`
	Teams        int    `json:"teams"`
	Questions    int    `json:"questions"`
	Alternatives int    `json:"alternatives"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	rat, err := h.service.Create(r.Context(), app.CreateRATRequest{
		Label:        req.Label,
		Teams:        req.Teams,
		Questions:    req.Questions,
		Alternatives: req.Alternatives,
		Solution:     req.Solution,
		Creator:      req.Creator,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, createResponse{
		PrivateID:    rat.PrivateID,
		PublicID:     rat.PublicID,
		Label:        rat.Label,
		Teams:        rat.Teams,
		Questions:    rat.Questions,
		Alternatives: rat.Alternatives,
	})
}

type studentTeamView struct {
	Team    string `json:"team"`
	Color   string `json:"color"`
	Grabbed bool   `json:"grabbed"`
}

type studentView struct {
	PublicID string            `json:"public_id"`
	Label    string            `json:"label"`
	Teams    []studentTeamView `json:"teams"`
}

func (h *Handler) handleStudentView(w http.ResponseWriter, r *http.Request) {
	rat, err := h.service.StudentView(r.Context(), chi.URLParam(r, "publicID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	view := studentView{PublicID: rat.PublicID, Label: rat.Label}
	for i, team := range rat.TeamIDs() {
		view.Teams = append(view.Teams, studentTeamView{
			Team:    team,
			Color:   rat.TeamColors[i],
			Grabbed: rat.Grabbed(team),
		})
	}
	h.writeJSON(w, http.StatusOK, view)
}

type grabResponse struct {
	CardID string `json:"card_id"`
}

func (h *Handler) handleGrab(w http.ResponseWriter, r *http.Request) {
	cardID, err := h.service.Grab(r.Context(), chi.URLParam(r, "publicID"), chi.URLParam(r, "team"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, grabResponse{CardID: cardID})
}

// answerView reveals correctness only for uncovered alternatives; a covered
// tile must not leak whether it is the right one.
type answerView struct {
	Symbol    string `json:"symbol"`
	Uncovered bool   `json:"uncovered"`
	Correct   *bool  `json:"correct,omitempty"`
}

type questionView struct {
	Number   int          `json:"number"`
	Started  bool         `json:"started"`
	Finished bool         `json:"finished"`
	Answers  []answerView `json:"answers"`
}

type cardView struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Team      string         `json:"team"`
	Color     string         `json:"color"`
	State     string         `json:"state"`
	Symbols   []string       `json:"symbols"`
	Questions []questionView `json:"questions"`
}

func newCardView(card *domain.Card) cardView {
	view := cardView{
		ID:    card.ID,
		Label: card.Label,
		Team:  card.Team,
		Color: card.Color,
		State: card.State(),
	}
	for _, number := range card.QuestionNumbers() {
		question, _ := card.Question(number)
		if view.Symbols == nil {
			view.Symbols = question.Symbols()
		}
		qv := questionView{
			Number:   question.Number,
			Started:  question.Started,
			Finished: question.Finished,
		}
		for _, symbol := range question.Symbols() {
			answer := question.Answers[symbol]
			av := answerView{Symbol: symbol, Uncovered: answer.Uncovered}
			if answer.Uncovered {
				correct := answer.Correct
				av.Correct = &correct
			}
			qv.Answers = append(qv.Answers, av)
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// handleGetCard returns the card view. Link-based scratching is supported
// the way the original card page works: "?question=1&alternative=A" uncovers
// before rendering.
func (h *Handler) handleGetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	var card *domain.Card
	var err error
	if raw := r.URL.Query().Get("question"); raw != "" {
		var number int
		number, err = parseQuestionNumber(raw)
		if err == nil {
			card, err = h.service.Uncover(r.Context(), cardID, number, r.URL.Query().Get("alternative"))
		}
	} else {
		card, err = h.service.GetCard(r.Context(), cardID)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCardView(card))
}

type uncoverRequest struct {
	Question    int    `json:"question"`
	Alternative string `json:"alternative"`
}

func (h *Handler) handleUncover(w http.ResponseWriter, r *http.Request) {
	var req uncoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	card, err := h.service.Uncover(r.Context(), chi.URLParam(r, "cardID"), req.Question, req.Alternative)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCardView(card))
}

type teacherView struct {
	PrivateID string     `json:"private_id"`
	PublicID  string     `json:"public_id"`
	Label     string     `json:"label"`
	Header    []string   `json:"header"`
	Rows      [][]string `json:"rows"`
}

func (h *Handler) handleTeacherView(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.TeacherView(r.Context(), chi.URLParam(r, "privateID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, teacherView{
		PrivateID: status.RAT.PrivateID,
		PublicID:  status.RAT.PublicID,
		Label:     status.RAT.Label,
		Header:    status.Header,
		Rows:      status.Rows,
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = domain.DownloadFormatString
	}
	out, err := h.service.Download(r.Context(), chi.URLParam(r, "privateID"), format)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trat.txt"`)
	w.Write([]byte(out))
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRATNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrTeamNotFound):
		h.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrAlreadyGrabbed):
		h.writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidSolution),
		errors.Is(err, domain.ErrInvalidAlternative),
		errors.Is(err, domain.ErrInsufficientColors),
		errors.Is(err, domain.ErrUnsupportedFormat):
		h.writeError(w, r, http.StatusBadRequest, err)
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		h.writeError(w, r, http.StatusInternalServerError, errors.New("internal error"))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response", "err", err)
	}
}

// parseQuestionNumber is kept for query-style uncovers ("?question=1"), the
// original navigation style.
func parseQuestionNumber(raw string) (int, error) {
	number, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrQuestionNotFound
	}
	return number, nil
}
