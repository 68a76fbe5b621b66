package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
)

// relay writes the upstream response as received: same status, same bytes.
// Once the status is out nothing else may be written, so a failed body write
// is only logged.
func relay(w http.ResponseWriter, req *http.Request, resp *gateway.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		log.Ctx(req.Context()).Warn().Err(err).Int("status", resp.StatusCode).Msg("relay write failed")
	}
}

// writeDetail writes a gateway-originated {"detail": msg} body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Detail string `json:"detail"`
	}{msg})
}
