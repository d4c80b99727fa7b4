package http

import (
	"net/http"
	"strings"
)

const healthPath = "/healthz"

// RouterConfig lists the handlers and middleware mounted by NewRouter.
type RouterConfig struct {
	Reservations *ReservationHandler
	Rooms        *RoomHandler
	Health       http.HandlerFunc
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	health := cfg.Health
	if health == nil {
		health = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
		}
	}
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		health(w, r)
	})

	if cfg.Reservations != nil {
		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Reservations.List(w, r)
			case http.MethodPost:
				cfg.Reservations.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/bookings/"), "/")
			parts := strings.Split(rest, "/")

			switch {
			case rest == "":
				http.NotFound(w, r)
			case rest == "check":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Reservations.Check(w, r)
			case len(parts) == 4 && parts[0] == "room" && parts[2] == "date" && parts[1] != "" && parts[3] != "":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Reservations.ListByRoomAndDate(w, r, parts[1], parts[3])
			case len(parts) == 1:
				r = r.WithContext(ContextWithReservationID(r.Context(), rest))
				switch r.Method {
				case http.MethodGet:
					cfg.Reservations.Get(w, r)
				case http.MethodPut:
					cfg.Reservations.Update(w, r)
				case http.MethodDelete:
					cfg.Reservations.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Rooms != nil {
		mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Rooms.List(w, r)
		})
		mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/rooms/"), "/")
			id, tail, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			r = r.WithContext(ContextWithRoomID(r.Context(), id))
			switch tail {
			case "":
				cfg.Rooms.Get(w, r)
			case "slots":
				cfg.Rooms.Slots(w, r)
			default:
				http.NotFound(w, r)
			}
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

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
