package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/fairwaylabs/minigolf-server/internal/httputil"
	"github.com/fairwaylabs/minigolf-server/internal/middleware"
	"github.com/fairwaylabs/minigolf-server/internal/service"
	"github.com/fairwaylabs/minigolf-server/internal/store"
	"github.com/fairwaylabs/minigolf-server/internal/ws"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type matchRequestBody struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Mode     string `json:"mode"`
	Skill    int    `json:"skill"`
}

type bracketResultBody struct {
	Scores map[string]int `json:"scores"`
}

func newRouter(matchmaking *service.Matchmaking, matchStore *store.MatchStore, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)

	r.Get("/ws", hub.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Throttle(rate.NewLimiter(rate.Limit(100), 200)))

		r.Post("/matchmaking/requests", func(w http.ResponseWriter, r *http.Request) {
			var body matchRequestBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if body.PlayerID == "" {
				httputil.BadRequest(w, "player_id is required", nil)
				return
			}
			mode := game.GameMode(body.Mode)
			if !mode.Valid() {
				httputil.BadRequest(w, "unknown game mode", nil)
				return
			}

			size, err := matchmaking.RequestMatch(body.PlayerID, body.Name, mode, body.Skill, nil)
			if err != nil {
				if errors.Is(err, game.ErrDuplicateRequest) {
					httputil.Conflict(w, "Player is already queued in this mode", err)
					return
				}
				httputil.InternalServerError(w, "Failed to queue matchmaking request", err)
				return
			}

			httputil.JSON(w, http.StatusAccepted, map[string]any{
				"queue_size":      size,
				"timeout_seconds": int(matchmaking.MatchmakingTimeout().Seconds()),
			})
		})

		r.Delete("/matchmaking/requests/{playerID}", func(w http.ResponseWriter, r *http.Request) {
			playerID := chi.URLParam(r, "playerID")
			if !matchmaking.CancelMatch(playerID) {
				httputil.NotFound(w, "Player is not queued", nil)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/matchmaking/queues/{mode}", func(w http.ResponseWriter, r *http.Request) {
			mode := game.GameMode(chi.URLParam(r, "mode"))
			if !mode.Valid() {
				httputil.BadRequest(w, "unknown game mode", nil)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]any{
				"mode": mode,
				"size": matchmaking.QueueSize(mode),
			})
		})

		r.Post("/tournaments/{tournamentID}/brackets/{bracketID}/results", func(w http.ResponseWriter, r *http.Request) {
			tournamentID, err := uuid.Parse(chi.URLParam(r, "tournamentID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			bracketID, err := uuid.Parse(chi.URLParam(r, "bracketID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid bracket ID", err)
				return
			}
			var body bracketResultBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}

			err = matchmaking.SubmitBracketResult(r.Context(), tournamentID, bracketID, body.Scores)
			if err != nil {
				// Unknown ids are not fatal: the tournament may have been
				// retired, or this is a duplicate submission.
				if errors.Is(err, game.ErrUnknownTournament) || errors.Is(err, game.ErrUnknownBracket) {
					httputil.NotFound(w, "Tournament or bracket is no longer tracked", err)
					return
				}
				httputil.InternalServerError(w, "Failed to record bracket result", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/tournaments/{tournamentID}/standings", func(w http.ResponseWriter, r *http.Request) {
			tournamentID, err := uuid.Parse(chi.URLParam(r, "tournamentID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			standings, err := matchStore.GetStandings(r.Context(), tournamentID)
			if err != nil {
				httputil.InternalServerError(w, "Failed to get standings", err)
				return
			}
			if len(standings) == 0 {
				httputil.NotFound(w, "Tournament not found", nil)
				return
			}
			httputil.JSON(w, http.StatusOK, standings)
		})

		r.Post("/matches/{matchID}/complete", func(w http.ResponseWriter, r *http.Request) {
			matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			if err := matchmaking.CompleteMatch(r.Context(), matchID); err != nil {
				if errors.Is(err, store.ErrMatchNotFound) {
					httputil.NotFound(w, "Match not found", err)
					return
				}
				httputil.InternalServerError(w, "Failed to complete match", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/matches/{matchID}", func(w http.ResponseWriter, r *http.Request) {
			matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			record, err := matchStore.GetMatch(r.Context(), matchID)
			if err != nil {
				if errors.Is(err, store.ErrMatchNotFound) {
					httputil.NotFound(w, "Match not found", err)
					return
				}
				httputil.InternalServerError(w, "Failed to get match", err)
				return
			}
			httputil.JSON(w, http.StatusOK, record)
		})
	})

	return r
}
