package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	lgerrors "github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/linkgraph"
)

type snapshotResponse struct {
	ID           string          `json:"id"`
	SnapshotHash string          `json:"snapshot_hash,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ReverseKind  string          `json:"reverse_kind"`
	Stats        linkgraph.Stats `json:"stats"`
}

type depsResponse struct {
	ABI    string   `json:"abi"`
	Object string   `json:"object"`
	Direct bool     `json:"direct"`
	Deps   []string `json:"deps"`
}

type rdepsResponse struct {
	ABI        string   `json:"abi"`
	Soname     string   `json:"soname"`
	Kind       string   `json:"kind"`
	Dependents []string `json:"dependents"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotResponse{
		ID:           s.res.ID,
		SnapshotHash: s.res.SnapshotHash,
		CreatedAt:    s.res.CreatedAt,
		ReverseKind:  string(s.res.Reverse.Kind),
		Stats:        s.res.Stats,
	})
}

func (s *server) abis(w http.ResponseWriter, _ *http.Request) {
	abis := s.res.Forward.ABIs()
	out := make([]string, len(abis))
	for i, abi := range abis {
		out[i] = string(abi)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) objects(w http.ResponseWriter, r *http.Request) {
	abi, ok := s.abi(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.res.Forward.Objects(abi))
}

func (s *server) libraries(w http.ResponseWriter, r *http.Request) {
	libs, err := s.res.Libraries(linkgraph.ABI(chi.URLParam(r, "abi")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, libs)
}

func (s *server) deps(w http.ResponseWriter, r *http.Request) {
	abi := linkgraph.ABI(chi.URLParam(r, "abi"))
	object := r.URL.Query().Get("object")
	if object == "" {
		writeError(w, lgerrors.New(lgerrors.ErrCodeInvalidInput, "object query parameter is required"))
		return
	}
	if err := lgerrors.ValidateObjectPath(object); err != nil {
		writeError(w, err)
		return
	}
	direct := false
	if v := r.URL.Query().Get("direct"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "direct"))
			return
		}
		direct = b
	}

	query := s.res.Deps
	if direct {
		query = s.res.DirectDeps
	}
	deps, err := query(abi, object)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depsResponse{ABI: string(abi), Object: object, Direct: direct, Deps: nonNil(deps)})
}

func (s *server) rdeps(w http.ResponseWriter, r *http.Request) {
	abi := linkgraph.ABI(chi.URLParam(r, "abi"))
	soname := r.URL.Query().Get("soname")
	if soname == "" {
		writeError(w, lgerrors.New(lgerrors.ErrCodeInvalidInput, "soname query parameter is required"))
		return
	}
	if err := lgerrors.ValidateSoname(soname); err != nil {
		writeError(w, err)
		return
	}
	users, err := s.res.Dependents(abi, soname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rdepsResponse{
		ABI:        string(abi),
		Soname:     soname,
		Kind:       string(s.res.Reverse.Kind),
		Dependents: users,
	})
}

func (s *server) unresolved(w http.ResponseWriter, r *http.Request) {
	abi, ok := s.abi(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.res.Unresolved(abi)))
}

// abi reads the ABI path parameter and writes a 404 when the class is
// unknown.
func (s *server) abi(w http.ResponseWriter, r *http.Request) (linkgraph.ABI, bool) {
	abi := linkgraph.ABI(chi.URLParam(r, "abi"))
	if !s.res.Forward.HasABI(abi) {
		writeError(w, lgerrors.Wrap(lgerrors.ErrCodeNotFound, linkgraph.ErrUnknownABI, "%q", abi))
		return "", false
	}
	return abi, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := lgerrors.GetCode(err)
	if code == "" {
		code = lgerrors.ErrCodeInternal
	}
	writeJSON(w, statusFor(err), errorBody{Error: errorDetail{
		Code:    string(code),
		Message: lgerrors.UserMessage(err),
	}})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch {
	case lgerrors.IsNotFound(err):
		return http.StatusNotFound
	case lgerrors.IsInvalid(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
