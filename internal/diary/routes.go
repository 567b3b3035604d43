package diary

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/krishi-mitra/internal/accounts"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// RegisterRoutes mounts diary endpoints on the given router. Callers are
// expected to wrap r with accounts.RequireUser.
func RegisterRoutes(r chi.Router, repo Repository) {
	r.Get("/api/diary", listHandler(repo))
	r.Post("/api/diary", createHandler(repo))
	r.Get("/api/diary/{id}", getHandler(repo))
	r.Put("/api/diary/{id}", updateHandler(repo))
	r.Delete("/api/diary/{id}", deleteHandler(repo))
}

func listHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := repo.List(r.Context(), accounts.UserID(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []Entry{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := repo.Get(r.Context(), accounts.UserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func createHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := decodeEntry(w, r)
		if !ok {
			return
		}
		e.UserID = accounts.UserID(r.Context())
		if err := repo.Create(r.Context(), e); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func updateHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := decodeEntry(w, r)
		if !ok {
			return
		}
		e.ID = chi.URLParam(r, "id")
		e.UserID = accounts.UserID(r.Context())
		if err := repo.Update(r.Context(), e); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func deleteHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Delete(r.Context(), accounts.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeEntry validates the body as a generic object before converting it to
// an Entry, so every bad field is reported at once.
func decodeEntry(w http.ResponseWriter, r *http.Request) (*Entry, bool) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if err := schema.Validate(EntrySchema, raw); err != nil {
		writeError(w, err)
		return nil, false
	}

	b, _ := json.Marshal(raw)
	e := &Entry{}
	if err := json.Unmarshal(b, e); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return e, true
}

func writeError(w http.ResponseWriter, err error) {
	var ve *schema.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "kind": "validation", "violations": ve.Violations})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error(), "kind": "not_found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error(), "kind": "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
