package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			filter := store.CompanyFilter{
				Status:         model.CompanyStatus(q.Get("status")),
				Municipality:   q.Get("municipality"),
				County:         q.Get("county"),
				IndustryPrefix: q.Get("industry_prefix"),
				MinScore:       queryInt(q.Get("min_score"), 0),
				Limit:          queryInt(q.Get("limit"), 100),
				Offset:         queryInt(q.Get("offset"), 0),
			}
			companies, err := env.Store.ListCompanies(r.Context(), filter)
			if err != nil {
				writeError(w, err)
				return
			}
			if companies == nil {
				companies = []model.Company{}
			}
			writeJSON(w, http.StatusOK, companies)
		})

		mux.HandleFunc("GET /api/companies/{orgnr}", func(w http.ResponseWriter, r *http.Request) {
			orgnr := r.PathValue("orgnr")
			company, err := env.Store.GetCompany(r.Context(), orgnr)
			if err != nil {
				writeError(w, err)
				return
			}
			explanations, err := env.Store.ListExplanations(r.Context(), company.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			roles, err := env.Store.ListRoles(r.Context(), company.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"company":      company,
				"explanations": explanations,
				"roles":        roles,
			})
		})

		mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
			jobs, err := env.Store.ListJobs(r.Context(), queryInt(r.URL.Query().Get("limit"), 20))
			if err != nil {
				writeError(w, err)
				return
			}
			if jobs == nil {
				jobs = []model.SyncJob{}
			}
			writeJSON(w, http.StatusOK, jobs)
		})

		mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
			job, err := env.Store.GetJob(r.Context(), r.PathValue("id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, job)
		})

		mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
			stats, err := env.Store.DashboardStats(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		mux.HandleFunc("POST /api/sync", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Type model.JobType `json:"type"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}

			var flow func() (*model.SyncJob, error)
			switch req.Type {
			case model.JobFull:
				flow = func() (*model.SyncJob, error) { return env.Orchestrator.FullSync(ctx) }
			case model.JobIncremental:
				flow = func() (*model.SyncJob, error) { return env.Orchestrator.IncrementalSync(ctx) }
			case model.JobRoles:
				flow = func() (*model.SyncJob, error) { return env.Orchestrator.RolesSync(ctx) }
			case model.JobSubEntities:
				flow = func() (*model.SyncJob, error) { return env.Orchestrator.SubEntitySync(ctx) }
			default:
				http.Error(w, `{"error":"unknown sync type"}`, http.StatusBadRequest)
				return
			}

			// Sync runs detach from the request; progress is polled via
			// GET /api/jobs.
			go func() {
				if _, err := flow(); err != nil {
					zap.L().Error("api-triggered sync failed",
						zap.String("type", string(req.Type)), zap.Error(err))
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "accepted",
				"type":   string(req.Type),
			})
		})

		mux.HandleFunc("GET /api/export", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			filter := store.CompanyFilter{
				Status:   model.CompanyStatus(q.Get("status")),
				County:   q.Get("county"),
				MinScore: queryInt(q.Get("min_score"), 0),
				Limit:    queryInt(q.Get("limit"), 0),
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
			if _, err := env.Exporter.WriteCSV(r.Context(), w, filter); err != nil {
				zap.L().Error("export failed", zap.Error(err))
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(drainCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
