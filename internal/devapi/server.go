package devapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/feedback"
)

// MaxBodyBytes bounds a submission: two base64 images plus the form.
const MaxBodyBytes = 80 << 20

// DefaultPricingURL is returned with quota errors.
const DefaultPricingURL = "https://notedis.com/pricing"

// Server serves the three widget endpoints.
type Server struct {
	Store      Store
	PricingURL string
	Now        func() time.Time
}

// NewServer returns a Server backed by store.
func NewServer(store Store) *Server {
	return &Server{Store: store, PricingURL: DefaultPricingURL, Now: time.Now}
}

// Router builds the HTTP routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/site/status", s.handleStatus)
		r.Route("/feedback", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleSubmit)
			r.Post("/request-upgrade", s.handleRequestUpgrade)
		})
	})
	return r
}

func errorJSON(w http.ResponseWriter, r *http.Request, code int, body feedback.ErrorBody) {
	render.Status(r, code)
	render.JSON(w, r, body)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("site_key")
	site, err := s.Store.Site(r.Context(), key)
	if err != nil {
		if !errors.Is(err, ErrSiteNotFound) {
			logrus.WithError(err).WithField("site_key", key).Error("Failed to look up site")
		}
		render.JSON(w, r, feedback.StatusResponse{Active: false})
		return
	}
	render.JSON(w, r, feedback.StatusResponse{Active: site.Active})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var p feedback.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		errorJSON(w, r, http.StatusBadRequest, feedback.ErrorBody{Message: "Invalid request body"})
		return
	}
	log := logrus.WithField("site_key", p.SiteKey)

	site, err := s.Store.Site(r.Context(), p.SiteKey)
	if err != nil || !site.Active {
		errorJSON(w, r, http.StatusNotFound, feedback.ErrorBody{Message: "Invalid site key"})
		return
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Message) == "" {
		errorJSON(w, r, http.StatusUnprocessableEntity, feedback.ErrorBody{Message: "Title and message are required"})
		return
	}

	if site.Quota > 0 {
		n, err := s.Store.CountEntries(r.Context(), site.Key)
		if err != nil {
			log.WithError(err).Error("Failed to count feedback")
			errorJSON(w, r, http.StatusInternalServerError, feedback.ErrorBody{Message: "Failed to store feedback"})
			return
		}
		if n >= site.Quota {
			errorJSON(w, r, http.StatusPaymentRequired, s.quotaBody(site))
			return
		}
	}

	entry, err := NewEntry(&p, s.Now())
	if err == nil {
		_, err = s.Store.AddEntry(r.Context(), entry)
	}
	if err != nil {
		log.WithError(err).Error("Failed to store feedback")
		errorJSON(w, r, http.StatusInternalServerError, feedback.ErrorBody{Message: "Failed to store feedback"})
		return
	}
	log.WithFields(logrus.Fields{
		"entry_id":   entry.ID,
		"category":   entry.Category,
		"screenshot": entry.HasScreenshot,
		"upload":     entry.HasUpload,
	}).Info("Feedback received")
	render.JSON(w, r, map[string]any{"success": true, "id": entry.ID})
}

func (s *Server) quotaBody(site *Site) feedback.ErrorBody {
	body := feedback.ErrorBody{
		ErrorType: feedback.ErrorTypeLimitExceeded,
		Message:   "This site has reached its feedback limit.",
		Metadata:  feedback.ErrorMetadata{OwnerEmail: site.OwnerEmail, PricingURL: s.PricingURL},
	}
	if site.Trial {
		body.ErrorType = feedback.ErrorTypeTrialExpired
		body.Message = "The free trial for this site has expired."
	}
	return body
}

func (s *Server) handleRequestUpgrade(w http.ResponseWriter, r *http.Request) {
	var req feedback.UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, feedback.UpgradeResponse{Message: "Invalid request body"})
		return
	}
	if !feedback.ValidEmail(req.SenderEmail) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, feedback.UpgradeResponse{Message: "A valid sender email is required"})
		return
	}
	site, err := s.Store.Site(r.Context(), req.SiteKey)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, feedback.UpgradeResponse{Message: "Invalid site key"})
		return
	}
	if _, err := s.Store.AddUpgradeRequest(r.Context(), &UpgradeRequest{
		SiteKey:     site.Key,
		SenderEmail: req.SenderEmail,
		CreatedAt:   s.Now().UTC(),
	}); err != nil {
		logrus.WithError(err).WithField("site_key", site.Key).Error("Failed to store upgrade request")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, feedback.UpgradeResponse{Message: "Failed to send request"})
		return
	}
	render.JSON(w, r, feedback.UpgradeResponse{Success: true, Message: "Your upgrade request has been sent to the site owner."})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("site_key")
	entries, err := s.Store.Entries(r.Context(), key)
	if err != nil {
		logrus.WithError(err).WithField("site_key", key).Error("Failed to list feedback")
		errorJSON(w, r, http.StatusInternalServerError, feedback.ErrorBody{Message: "Failed to list feedback"})
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	render.JSON(w, r, entries)
}
