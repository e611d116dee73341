package admin

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"hacklab-sim/internal/battle"
)

type Server struct {
	Engine *battle.Engine
	tpl    *template.Template
}

//go:embed templates/index.html
var content embed.FS

func NewServer(engine *battle.Engine) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Engine: engine, tpl: tpl}
}

func (s *Server) routes() {
	http.HandleFunc("/", s.handleIndex)
	http.HandleFunc("/state", s.handleState)
	http.HandleFunc("/events", s.handleEvents)
	http.HandleFunc("/score", s.handleScore)
	http.HandleFunc("/launch-attack", s.handleLaunchAttack)
	http.HandleFunc("/toggle-pause", s.handleTogglePause)
	http.HandleFunc("/stop", s.handleStop)
}

func (s *Server) Start(addr string) error {
	s.routes()
	return http.ListenAndServe(addr, nil)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot()
	data := struct {
		Snapshot battle.Snapshot
		Scenario string
	}{
		Snapshot: snap,
	}
	if snap.Scenario != nil {
		data.Scenario = snap.Scenario.Name
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Engine.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	events := s.Engine.Snapshot().Events
	if events == nil {
		events = []battle.Event{}
	}
	json.NewEncoder(w).Encode(events)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"score":   snap.Score,
		"metrics": snap.Metrics,
	})
}

func (s *Server) handleLaunchAttack(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		http.Error(w, "missing kind parameter", http.StatusBadRequest)
		return
	}
	if err := s.Engine.LaunchAttack(kind); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	paused := s.Engine.TogglePause()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"paused": paused})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Engine.Stop()
	w.WriteHeader(http.StatusNoContent)
}
