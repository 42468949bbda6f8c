package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// ttsRequest is the POST /api/tts body.
type ttsRequest struct {
	Text string `json:"text"`
}

// ttsResponse carries the synthesized audio as base64 so the browser can
// build a data URL directly. Service names which provider won the fallback
// chain.
type ttsResponse struct {
	Success      bool   `json:"success"`
	AudioContent string `json:"audioContent"`
	Format       string `json:"format"`
	Service      string `json:"service"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequestf("invalid JSON body"))
		return
	}

	start := time.Now()
	speech, err := s.speaker.Speak(r.Context(), req.Text)
	s.metrics.TTSDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.RecordProviderRequest(r.Context(), speech.Service, "tts", "ok")
	s.writeJSON(w, http.StatusOK, ttsResponse{
		Success:      true,
		AudioContent: base64.StdEncoding.EncodeToString(speech.Audio),
		Format:       speech.Format,
		Service:      speech.Service,
	})
}
