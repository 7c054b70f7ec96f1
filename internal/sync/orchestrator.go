// Package sync coordinates registry ingestion runs. Every run is recorded as
// a SyncJob that transitions exactly once from running to completed or failed.
package sync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscout/internal/mapper"
	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/registry"
	"github.com/sells-group/leadscout/internal/scoring"
	"github.com/sells-group/leadscout/internal/store"
)

const (
	defaultWorkers           = 5
	defaultPageSize          = 100
	defaultMaxPages          = 1000
	defaultMaxSubEntityPages = 500
	defaultRolesBatchSize    = 1000
	defaultSummaryThreshold  = 75

	// incrementalLookback is used when no prior incremental run exists.
	incrementalLookback = 24 * time.Hour
)

// RegistryClient is the registry surface the orchestrator consumes,
// satisfied by *registry.Client.
type RegistryClient interface {
	FetchPage(ctx context.Context, page, pageSize int, filters registry.ListFilters) (*registry.Page, error)
	FetchSubEntityPage(ctx context.Context, page, pageSize int) (*registry.Page, error)
	FetchByID(ctx context.Context, orgnr string) (*registry.Entity, error)
	FetchChangesSince(ctx context.Context, since time.Time, page, pageSize int) (*registry.ChangePage, error)
	FetchRelations(ctx context.Context, orgnr string) ([]registry.RoleGroup, error)
}

// Summarizer produces a short sales summary for a high-scoring lead.
// Summaries are best-effort: a failure never fails the record.
type Summarizer interface {
	Summarize(ctx context.Context, c *model.Company, topReasons []string) (string, error)
}

// Notifier receives lifecycle events. Delivery is best-effort.
type Notifier interface {
	JobFinished(ctx context.Context, job *model.SyncJob)
	HighScoreLead(ctx context.Context, c *model.Company)
}

// Options tunes an Orchestrator. Zero values fall back to defaults.
type Options struct {
	Workers           int `yaml:"workers" mapstructure:"workers"`
	PageSize          int `yaml:"page_size" mapstructure:"page_size"`
	MaxPages          int `yaml:"max_pages" mapstructure:"max_pages"`
	MaxSubEntityPages int `yaml:"max_sub_entity_pages" mapstructure:"max_sub_entity_pages"`
	RolesBatchSize    int `yaml:"roles_batch_size" mapstructure:"roles_batch_size"`
	SummaryThreshold  int `yaml:"summary_threshold" mapstructure:"summary_threshold"`

	Filters registry.ListFilters `yaml:"filters" mapstructure:"filters"`
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = defaultMaxPages
	}
	if o.MaxSubEntityPages <= 0 {
		o.MaxSubEntityPages = defaultMaxSubEntityPages
	}
	if o.RolesBatchSize <= 0 {
		o.RolesBatchSize = defaultRolesBatchSize
	}
	if o.SummaryThreshold <= 0 {
		o.SummaryThreshold = defaultSummaryThreshold
	}
	return o
}

// Orchestrator runs the four sync flows against one registry.
type Orchestrator struct {
	client     RegistryClient
	store      store.Store
	mapper     *mapper.Mapper
	opts       Options
	summarizer Summarizer // optional
	notifier   Notifier   // optional
	now        func() time.Time
}

// New creates an Orchestrator. summarizer and notifier may be nil.
func New(client RegistryClient, st store.Store, m *mapper.Mapper, opts Options, summarizer Summarizer, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		client:     client,
		store:      st,
		mapper:     m,
		opts:       opts.withDefaults(),
		summarizer: summarizer,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// counters accumulates progress across a worker pool.
type counters struct {
	mu        sync.Mutex
	processed int
	errors    int
	log       []string
}

func (c *counters) addProcessed() {
	c.mu.Lock()
	c.processed++
	c.mu.Unlock()
}

func (c *counters) addError(msg string) {
	c.mu.Lock()
	c.errors++
	if len(c.log) < 100 { // keep the job log bounded
		c.log = append(c.log, msg)
	}
	c.mu.Unlock()
}

func (c *counters) snapshot() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processed, c.errors
}

func (c *counters) logText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.log, "\n")
}

// run wraps a flow in the job lifecycle: create in running, finish exactly
// once in completed or failed. A flow error fails the job with the partial
// counters it reached.
func (o *Orchestrator) run(ctx context.Context, jobType model.JobType, flow func(ctx context.Context, job *model.SyncJob, cnt *counters) error) (*model.SyncJob, error) {
	job, err := o.store.CreateJob(ctx, jobType)
	if err != nil {
		return nil, eris.Wrapf(err, "sync: create %s job", jobType)
	}
	log := zap.L().With(zap.String("job_id", job.ID), zap.String("job_type", string(jobType)))
	log.Info("sync job started")

	cnt := &counters{}
	flowErr := flow(ctx, job, cnt)

	processed, errs := cnt.snapshot()
	status := model.JobCompleted
	logText := cnt.logText()
	if flowErr != nil {
		status = model.JobFailed
		logText = strings.TrimSpace(eris.ToString(flowErr, false) + "\n" + logText)
	}

	// Finishing must not be lost to the cancelled context that failed the flow.
	finishCtx := ctx
	if finishCtx.Err() != nil {
		var cancel context.CancelFunc
		finishCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}
	if err := o.store.FinishJob(finishCtx, job.ID, status, processed, errs, logText); err != nil {
		return nil, eris.Wrapf(err, "sync: finish %s job %s", jobType, job.ID)
	}

	job, err = o.store.GetJob(finishCtx, job.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "sync: reload job after finish")
	}

	log.Info("sync job finished",
		zap.String("status", string(status)),
		zap.Int("processed", processed),
		zap.Int("errors", errs),
	)
	if o.notifier != nil {
		o.notifier.JobFinished(finishCtx, job)
	}
	if flowErr != nil {
		return job, flowErr
	}
	return job, nil
}

// FullSync walks the entire entity listing page by page, upserting and
// scoring every record. Pages are fetched strictly in order; records within
// a page are processed by a bounded worker pool.
func (o *Orchestrator) FullSync(ctx context.Context) (*model.SyncJob, error) {
	return o.run(ctx, model.JobFull, func(ctx context.Context, job *model.SyncJob, cnt *counters) error {
		for page := 0; page < o.opts.MaxPages; page++ {
			p, err := o.client.FetchPage(ctx, page, o.opts.PageSize, o.opts.Filters)
			if err != nil {
				return eris.Wrapf(err, "sync: page %d", page)
			}

			o.processEntities(ctx, p.Records, cnt)

			processed, errs := cnt.snapshot()
			if err := o.store.UpdateJobProgress(ctx, job.ID, processed, errs); err != nil {
				zap.L().Warn("progress update failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			if !p.HasNext {
				break
			}
		}
		return nil
	})
}

// IncrementalSync fetches the change feed since the last completed
// incremental run and re-ingests each changed entity. With no prior run it
// looks back one day.
func (o *Orchestrator) IncrementalSync(ctx context.Context) (*model.SyncJob, error) {
	return o.run(ctx, model.JobIncremental, func(ctx context.Context, job *model.SyncJob, cnt *counters) error {
		since, err := o.incrementalSince(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("incremental sync", zap.Time("since", since))

		for page := 0; page < o.opts.MaxPages; page++ {
			p, err := o.client.FetchChangesSince(ctx, since, page, o.opts.PageSize)
			if err != nil {
				return eris.Wrapf(err, "sync: changes page %d", page)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(o.opts.Workers)
			for _, orgnr := range p.ChangedIDs {
				g.Go(func() error {
					ent, err := o.client.FetchByID(gctx, orgnr)
					if err != nil {
						if registry.IsNotFound(err) {
							// Change feed can reference entities that were
							// since removed from the registry.
							cnt.addProcessed()
							return nil
						}
						cnt.addError(fmt.Sprintf("fetch %s: %v", orgnr, err))
						return nil
					}
					o.ingestEntity(gctx, ent, cnt)
					return nil
				})
			}
			g.Wait() //nolint:errcheck // workers report via counters

			processed, errs := cnt.snapshot()
			if err := o.store.UpdateJobProgress(ctx, job.ID, processed, errs); err != nil {
				zap.L().Warn("progress update failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			if !p.HasNext {
				break
			}
		}
		return nil
	})
}

// incrementalSince derives the change-feed checkpoint: the finish time of
// the last completed incremental job, else a fixed lookback.
func (o *Orchestrator) incrementalSince(ctx context.Context) (time.Time, error) {
	last, err := o.store.LastCompletedJob(ctx, model.JobIncremental)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return o.now().Add(-incrementalLookback), nil
		}
		return time.Time{}, eris.Wrap(err, "sync: load incremental checkpoint")
	}
	if last.FinishedAt == nil {
		return o.now().Add(-incrementalLookback), nil
	}
	return *last.FinishedAt, nil
}

// RolesSync loads role data for a bounded batch of companies that do not
// have it yet. Known limitation: it does not rescore, even though the
// roles_loaded flag is a scoring signal, so a company's stored score lags
// its explanation set until the next full or incremental pass touches it.
func (o *Orchestrator) RolesSync(ctx context.Context) (*model.SyncJob, error) {
	return o.run(ctx, model.JobRoles, func(ctx context.Context, job *model.SyncJob, cnt *counters) error {
		companies, err := o.store.CompaniesMissingRoles(ctx, o.opts.RolesBatchSize)
		if err != nil {
			return eris.Wrap(err, "sync: load companies missing roles")
		}
		zap.L().Info("roles sync", zap.Int("companies", len(companies)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.opts.Workers)
		for _, c := range companies {
			g.Go(func() error {
				groups, err := o.client.FetchRelations(gctx, c.Orgnr)
				if err != nil && !registry.IsNotFound(err) {
					cnt.addError(fmt.Sprintf("relations %s: %v", c.Orgnr, err))
					return nil
				}
				// A 404 means no roles registered; storing the empty set
				// still marks roles_loaded so the company leaves the queue.
				roles := o.mapper.MapRoles(c.ID, groups)
				if err := o.store.ReplaceRoles(gctx, c.ID, roles); err != nil {
					cnt.addError(fmt.Sprintf("store roles %s: %v", c.Orgnr, err))
					return nil
				}
				cnt.addProcessed()
				return nil
			})
		}
		g.Wait() //nolint:errcheck

		processed, errs := cnt.snapshot()
		if err := o.store.UpdateJobProgress(ctx, job.ID, processed, errs); err != nil {
			zap.L().Warn("progress update failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		return nil
	})
}

// SubEntitySync walks the branch listing and attaches each branch to its
// parent company. Branches whose parent is not stored locally are counted
// as processed but not persisted.
func (o *Orchestrator) SubEntitySync(ctx context.Context) (*model.SyncJob, error) {
	return o.run(ctx, model.JobSubEntities, func(ctx context.Context, job *model.SyncJob, cnt *counters) error {
		for page := 0; page < o.opts.MaxSubEntityPages; page++ {
			p, err := o.client.FetchSubEntityPage(ctx, page, o.opts.PageSize)
			if err != nil {
				return eris.Wrapf(err, "sync: sub-entity page %d", page)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(o.opts.Workers)
			for i := range p.Records {
				ent := &p.Records[i]
				g.Go(func() error {
					se := o.mapper.MapSubEntity(ent)
					if se.ParentOrgnr == "" {
						cnt.addProcessed()
						return nil
					}
					_, err := o.store.GetCompany(gctx, se.ParentOrgnr)
					if err != nil {
						if eris.Is(err, store.ErrNotFound) {
							cnt.addProcessed() // orphan branch, parent never synced
							return nil
						}
						cnt.addError(fmt.Sprintf("parent lookup %s: %v", se.ParentOrgnr, err))
						return nil
					}
					if err := o.store.UpsertSubEntity(gctx, &se); err != nil {
						cnt.addError(fmt.Sprintf("store sub-entity %s: %v", se.Orgnr, err))
						return nil
					}
					cnt.addProcessed()
					return nil
				})
			}
			g.Wait() //nolint:errcheck

			processed, errs := cnt.snapshot()
			if err := o.store.UpdateJobProgress(ctx, job.ID, processed, errs); err != nil {
				zap.L().Warn("progress update failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			if !p.HasNext {
				break
			}
		}
		return nil
	})
}

// processEntities ingests one page of raw entities with a bounded pool.
func (o *Orchestrator) processEntities(ctx context.Context, entities []registry.Entity, cnt *counters) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i := range entities {
		ent := &entities[i]
		g.Go(func() error {
			o.ingestEntity(gctx, ent, cnt)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers report via counters
}

// ingestEntity maps, upserts and rescores one raw entity. A failure on any
// step counts the record as an error and moves on.
func (o *Orchestrator) ingestEntity(ctx context.Context, ent *registry.Entity, cnt *counters) {
	c := o.mapper.MapEntity(ctx, ent)
	stored, err := o.store.UpsertCompany(ctx, &c)
	if err != nil {
		cnt.addError(fmt.Sprintf("upsert %s: %v", ent.Orgnr, err))
		return
	}
	if err := o.rescore(ctx, stored); err != nil {
		cnt.addError(fmt.Sprintf("score %s: %v", ent.Orgnr, err))
		return
	}
	cnt.addProcessed()
}

// rescore recomputes and persists the score and explanations for a stored
// company, then triggers the high-score hooks.
func (o *Orchestrator) rescore(ctx context.Context, c *model.Company) error {
	subCount, err := o.store.CountSubEntities(ctx, c.Orgnr)
	if err != nil {
		return eris.Wrap(err, "count sub-entities")
	}

	res := scoring.Score(c, scoring.Related{SubEntityCount: subCount}, o.now())
	if err := o.store.UpdateScores(ctx, c.ID, res.Overall, res.UseCaseFit, res.Urgency, res.DataQuality); err != nil {
		return eris.Wrap(err, "update scores")
	}
	if err := o.store.ReplaceExplanations(ctx, c.ID, res.Explanations(c.ID)); err != nil {
		return eris.Wrap(err, "replace explanations")
	}

	c.OverallScore = res.Overall
	c.UseCaseFit = res.UseCaseFit
	c.UrgencyScore = res.Urgency
	c.DataQualityScore = res.DataQuality

	if res.Overall >= o.opts.SummaryThreshold {
		if o.summarizer != nil && c.Summary == "" {
			summary, err := o.summarizer.Summarize(ctx, c, res.TopReasons)
			if err != nil {
				zap.L().Warn("summary generation failed",
					zap.String("orgnr", c.Orgnr), zap.Error(err))
			} else if err := o.store.UpdateSummary(ctx, c.ID, summary); err != nil {
				zap.L().Warn("summary store failed",
					zap.String("orgnr", c.Orgnr), zap.Error(err))
			} else {
				c.Summary = summary
			}
		}
		if o.notifier != nil {
			o.notifier.HighScoreLead(ctx, c)
		}
	}
	return nil
}
