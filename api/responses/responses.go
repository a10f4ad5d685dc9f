package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/logger"
	"github.com/libratech/libratech-backend/pkg/types"
)

// WriteMessage replies with the bare {"message": ...} envelope.
func WriteMessage(w http.ResponseWriter, message string) {
	WriteMessageStatus(w, http.StatusOK, message)
}

func WriteMessageStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.MessageEnvelope{Message: message})
}

// WriteResult replies with {"message":"success","result": ...}.
func WriteResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, types.ResultEnvelope{Message: "success", Result: result})
}

// WriteCount replies with {"message":"success","count": N}.
func WriteCount(w http.ResponseWriter, count int64) {
	writeJSON(w, http.StatusOK, types.CountEnvelope{Message: "success", Count: count})
}

// WriteList replies with a bare JSON array, the legacy shape of the
// categories and books listings.
func WriteList(w http.ResponseWriter, list any) {
	writeJSON(w, http.StatusOK, list)
}

// WriteError maps the typed error to its HTTP status and public message,
// logging the full chain (pg fields included) without leaking it.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)

		fields := map[string]any{
			"error":         dump.TopMessage,
			"error_code":    dump.Code,
			"error_chain":   dump.Chain,
			"pg_code":       dump.PGCode,
			"pg_detail":     dump.PGDetail,
			"pg_message":    dump.PGMessage,
			"pg_table":      dump.PGTable,
			"pg_column":     dump.PGColumn,
			"pg_constraint": dump.PGConstraint,
		}

		ctx = logg.WithFields(ctx, fields)
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, types.MessageEnvelope{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
