package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/braunma/netbox-topology/pkg/topology"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeError maps engine errors: validation to 400 with field messages, missing objects
// to 404, anything else to 500
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	if verr, ok := topology.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, verr)
		return
	}
	if errors.Is(err, topology.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	log.WithField("request_id", RequestIDFrom(r.Context())).WithError(err).Error("internal error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// idList parses a comma-separated list of IDs
func idList(s string) ([]uint, error) {
	if s == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
