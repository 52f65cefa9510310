package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/httpserver/response"
	"github.com/gchung00/daily-qt/internal/sermon"
	"github.com/gchung00/daily-qt/internal/youtube"
)

// maxSermonBytes bounds request bodies carrying a transcript.
const maxSermonBytes = 1 << 20

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "ok"}, "")
}

func (h *handlers) listDates(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "dates", func() (interface{}, error) {
		dates, err := h.deps.Archive.Dates(r.Context())
		if dates == nil {
			dates = []string{}
		}
		return dates, err
	})
}

func (h *handlers) latest(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "latest", func() (interface{}, error) {
		return h.deps.Archive.Latest(r.Context())
	})
}

func (h *handlers) listSermons(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimSpace(r.URL.Query().Get("bookId"))
	h.cached(w, r, "list:"+bookID, func() (interface{}, error) {
		list, err := h.deps.Archive.ByBook(r.Context(), bookID)
		if list == nil {
			list = []sermon.Parsed{}
		}
		return list, err
	})
}

func (h *handlers) getSermon(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := archive.ValidateDate(date); err != nil {
		h.fail(w, r, err)
		return
	}
	h.cached(w, r, "sermon:"+date, func() (interface{}, error) {
		return h.deps.Archive.Get(r.Context(), date)
	})
}

func (h *handlers) listBooks(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "books", func() (interface{}, error) {
		all, err := h.deps.Archive.Sermons(r.Context())
		if err != nil {
			return nil, err
		}
		return archive.GroupByBook(all), nil
	})
}

type parseRequest struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

type parseResult struct {
	Parsed  sermon.Parsed `json:"parsed"`
	Summary string        `json:"summary"`
}

// parse previews how a transcript will be structured without storing it.
func (h *handlers) parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decode(w, r, &req) {
		return
	}

	p := sermon.Parse(req.Text)
	if req.Date != "" {
		if err := archive.ValidateDate(req.Date); err != nil {
			h.fail(w, r, err)
			return
		}
		p.Date = req.Date
	}
	response.Success(w, parseResult{Parsed: p, Summary: sermon.Summary(p)}, "")
}

type saveRequest struct {
	Date  string `json:"date"`
	Text  string `json:"text"`
	Force bool   `json:"force"`
}

func (h *handlers) saveSermon(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.Error(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	if err := h.deps.Archive.Save(r.Context(), req.Date, req.Text, req.Force); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, map[string]string{"date": req.Date}, "sermon saved")
}

func (h *handlers) deleteSermon(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := h.deps.Archive.Delete(r.Context(), date); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, map[string]string{"date": date}, "sermon deleted")
}

func (h *handlers) rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.Archive.Rebuild(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, map[string]int{"count": n}, "index rebuilt")
}

func (h *handlers) video(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !youtube.ValidID(id) {
		response.Error(w, http.StatusBadRequest, "invalid video id", nil)
		return
	}

	h.cached(w, r, "video:"+id, func() (interface{}, error) {
		v, err := h.deps.Videos.Metadata(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, archive.ErrNotFound
		}
		return v, nil
	})
}

// maxVideoIDs bounds one batch lookup.
const maxVideoIDs = 50

// videos resolves ?ids=a,b,c, leaving out unknown videos.
func (h *handlers) videos(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		if !youtube.ValidID(id) {
			response.Error(w, http.StatusBadRequest, "invalid video id", id)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 || len(ids) > maxVideoIDs {
		response.Error(w, http.StatusBadRequest, "ids must list 1 to 50 video ids", nil)
		return
	}

	h.cached(w, r, "videos:"+strings.Join(ids, ","), func() (interface{}, error) {
		return h.deps.Videos.MetadataList(r.Context(), ids)
	})
}

// cached serves key from the page cache, building and storing it on a miss.
// Cache failures degrade to an uncached response.
func (h *handlers) cached(w http.ResponseWriter, r *http.Request, key string, build func() (interface{}, error)) {
	ctx := r.Context()

	page, ok, err := h.deps.Pages.Get(ctx, key)
	if err != nil {
		h.logger.Warn("page cache read failed", "key", key, "error", err)
	}
	if ok {
		response.Raw(w, http.StatusOK, page)
		return
	}

	data, err := build()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err = response.Encode(data, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Pages.Set(ctx, key, page); err != nil {
		h.logger.Warn("page cache write failed", "key", key, "error", err)
	}
	response.Raw(w, http.StatusOK, page)
}

// fail maps archive errors onto status codes.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, archive.ErrInvalidDate):
		response.Error(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
	case errors.Is(err, archive.ErrNotFound):
		response.Error(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, archive.ErrConflict):
		response.Error(w, http.StatusConflict, "sermon already exists", nil)
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		response.Error(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSermonBytes)).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}
