package api

import (
	"errors"
	"net/http"
	"sort"

	"ecss/internal/jobs"
	"ecss/internal/schedule"
	"ecss/internal/scheduler"
	"ecss/internal/store"

	logx "ecss/pkg/logx"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"resources": []gin.H{
			{"link": Link{Rel: "jobs", Title: "Jobs", Href: "/jobs"}},
			{"link": Link{Rel: "spec", Title: "Spec", Href: "/spec"}},
		},
	})
}

func (s *Server) handleSpec(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields": []string{"second", "minute", "hour", "day_of_week", "week", "day", "month", "year"},
		"wildcard": gin.H{
			"token":    "?",
			"appliesTo": []string{"second", "minute", "hour"},
			"behavior": "resolved once, at write time, to a uniformly random concrete value within the field's range",
		},
		"dayOfWeekOrdinals": gin.H{
			"examples": []string{"2nd_mon", "last_fri"},
			"behavior": "Nth or last occurrence of the named weekday in the month, layered on top of the field's normal weekday match",
		},
		"triggerTypes": []string{jobs.TriggerTypeQueueDepth},
	})
}

func (s *Server) handleListJobs(c *gin.Context) {
	page, err := parsePagination(c.Query("skip"), c.Query("count"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	all, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load jobs"})
		s.log.Error("load jobs failed", logx.Any("err", err))
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	end := page.Skip + page.Count
	if end > total {
		end = total
	}
	var pageJobs []*jobs.Job
	if page.Skip < total {
		pageJobs = all[page.Skip:end]
	}

	envelopes := make([]jobEnvelope, 0, len(pageJobs))
	for _, j := range pageJobs {
		envelopes = append(envelopes, newJobEnvelope(j, "/jobs/"+j.ID))
	}

	result := pageMeta{
		Jobs: envelopes,
		Prev: linkFor("/jobs", page.Skip-page.Count, page.Count, total),
		Next: linkFor("/jobs", page.Skip+page.Count, page.Count, total),
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateJob(c *gin.Context) {
	var job jobs.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}
	if job.ID == "" {
		job.ID = job.TaskDefinition
	}
	if job.TaskCount == 0 {
		job.TaskCount = 1
	}

	if schedule.HasWildcard(job.Schedule) {
		job.Schedule = schedule.ResolveWildcards(job.Schedule)
	}

	jobs.Sanitize(&job, nil)
	if err := jobs.Validate(&job); err != nil {
		s.respondValidationError(c, err)
		return
	}

	if err := s.store.Create(c.Request.Context(), &job); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, ErrorResponse{Message: "Job " + job.ID + " already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to save job"})
		s.log.Error("create job failed", logx.String("job_id", job.ID), logx.Any("err", err))
		return
	}

	s.engine.Enqueue(scheduler.Mutation{Kind: scheduler.MutationCreate, JobID: job.ID, Job: job.Clone()})
	c.JSON(http.StatusCreated, createdResponse{
		ID:   job.ID,
		Link: Link{Rel: "self", Title: "Job for " + job.ID, Href: "/jobs/" + job.ID},
	})
}

func (s *Server) handleGetJob(c *gin.Context) {
	id := c.Param("id")
	job, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.respondStoreGetError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, newJobEnvelope(job, "/jobs/"+id))
}

func (s *Server) handleUpdateJob(c *gin.Context) {
	id := c.Param("id")
	current, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.respondStoreGetError(c, id, err)
		return
	}

	incoming := current.Clone()
	if err := c.ShouldBindJSON(incoming); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}
	incoming.ID = id

	if schedule.HasWildcard(incoming.Schedule) {
		incoming.Schedule = schedule.ResolveWildcards(incoming.Schedule)
	}

	jobs.Sanitize(incoming, current)
	if err := jobs.Validate(incoming); err != nil {
		s.respondValidationError(c, err)
		return
	}

	if err := s.store.Update(c.Request.Context(), incoming); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to save job"})
		s.log.Error("update job failed", logx.String("job_id", id), logx.Any("err", err))
		return
	}

	s.engine.Enqueue(scheduler.Mutation{Kind: scheduler.MutationUpdate, JobID: id, Job: incoming.Clone()})
	c.JSON(http.StatusOK, newJobEnvelope(incoming, "/jobs/"+id))
}

func (s *Server) handleDeleteJob(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.respondStoreGetError(c, id, err)
		return
	}
	s.engine.Enqueue(scheduler.Mutation{Kind: scheduler.MutationDelete, JobID: id})
	c.Status(http.StatusNoContent)
}

func (s *Server) respondStoreGetError(c *gin.Context, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "job " + id + " does not exist"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load job"})
	s.log.Error("load job failed", logx.String("job_id", id), logx.Any("err", err))
}

func (s *Server) respondValidationError(c *gin.Context, err error) {
	var verr *jobs.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "invalid job", Fields: verr.Fields})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})
}
