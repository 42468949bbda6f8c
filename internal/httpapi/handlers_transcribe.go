package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/fluentia-app/fluentia/pkg/provider/stt"
)

// maxUploadBytes caps transcription uploads at 10 MiB, matching typical
// browser MediaRecorder clip sizes with plenty of headroom.
const maxUploadBytes = 10 << 20

// transcribeResponse is the POST /api/transcribe reply.
type transcribeResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, badRequestf("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, r, badRequestf("audio file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, badRequestf("audio upload could not be read"))
		return
	}
	if len(data) == 0 {
		s.writeError(w, r, badRequestf("audio file is empty"))
		return
	}

	audio := stt.Audio{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}

	start := time.Now()
	out, err := s.transcriber.Transcribe(r.Context(), audio, r.FormValue("lesson_id"))
	s.metrics.STTDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(r.Context(), "transcribe", "stt")
		s.writeError(w, r, err)
		return
	}
	if out.Corrected {
		s.metrics.TranscriptCorrections.Add(r.Context(), 1)
	}

	s.writeJSON(w, http.StatusOK, transcribeResponse{Text: out.Text})
}
