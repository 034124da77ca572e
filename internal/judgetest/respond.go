package judgetest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/openjudge/judgectl/admin"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Success:   true,
		Data:      v,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Success:   false,
		Error:     &errorBody{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return v, false
	}
	return v, true
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePage reads "page" and "pageSize" query parameters. Missing or
// invalid values fall back to page 1 and the default size; pageSize is
// capped.
func parsePage(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()

	page = 1
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	pageSize = defaultPageSize
	if v := q.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// paginate returns (start, end) indices into a collection of total items
// plus the filled meta. A page past the end yields an empty slice.
func paginate(total, page, pageSize int) (start, end int, meta admin.ListMeta) {
	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	meta = admin.ListMeta{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}
	return start, end, meta
}
