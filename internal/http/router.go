package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Schedules  *ScheduleHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.SignUp(w, r)
		})
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Schedules != nil {
		mux.HandleFunc("/schedules", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Schedules.List(w, r)
			case http.MethodPost:
				cfg.Schedules.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/schedules/", func(w http.ResponseWriter, r *http.Request) {
			routeSchedule(cfg.Schedules, w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func routeSchedule(h *ScheduleHandler, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/schedules/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}

	ctx := ContextWithScheduleID(r.Context(), segments[0])
	r = r.WithContext(ctx)

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r)
		case http.MethodDelete:
			h.Delete(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	case len(segments) == 2 && segments[1] == "join":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.Join(w, r)
	case len(segments) == 3 && segments[1] == "dates" && segments[2] == "toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.ToggleDate(w, r)
	case len(segments) == 2 && segments[1] == "options":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.AddOption(w, r)
	case len(segments) == 3 && segments[1] == "options":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		r = r.WithContext(ContextWithOptionID(r.Context(), segments[2]))
		h.DeleteOption(w, r)
	case len(segments) == 4 && segments[1] == "options" && segments[3] == "vote":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		r = r.WithContext(ContextWithOptionID(r.Context(), segments[2]))
		h.ToggleVote(w, r)
	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
