package challengeapi

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-auth-state/signin"
	goerrors "github.com/goliatone/go-errors"
)

type screenView struct {
	Kind            signin.ScreenKind     `json:"kind"`
	Factor          *signin.FactorRecord  `json:"factor,omitempty"`
	AlreadyPrepared bool                  `json:"already_prepared"`
	Alternatives    []signin.FactorRecord `json:"alternatives,omitempty"`
}

type view struct {
	ID       string               `json:"id"`
	State    signin.State         `json:"state"`
	Screen   screenView           `json:"screen"`
	Attempts int                  `json:"attempts"`
	Sent     *bool                `json:"sent,omitempty"`
	Result   signin.AttemptResult `json:"result,omitempty"`
}

func newView(session *signin.ChallengeSession) view {
	snap := session.Snapshot()
	screen := session.Screen()

	sv := screenView{
		Kind:            screen.Kind,
		AlreadyPrepared: screen.AlreadyPrepared,
	}
	if screen.Factor != nil {
		rec := signin.RecordOf(screen.Factor)
		sv.Factor = &rec
	}
	for _, f := range screen.Alternatives {
		sv.Alternatives = append(sv.Alternatives, signin.RecordOf(f))
	}

	return view{
		ID:       snap.ID,
		State:    snap.State,
		Screen:   sv,
		Attempts: snap.Attempts,
	}
}

type errorResponse struct {
	Error    string         `json:"error"`
	TextCode string         `json:"text_code,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{
		Error:    richErr.Message,
		TextCode: richErr.TextCode,
		Metadata: richErr.Metadata,
	})
}
