package jobs

import "testing"

func validJob() *Job {
	return &Job{
		ID:             "job-1",
		TaskDefinition: "my-task",
		Schedule:       "0 0 0 * * *",
		TaskCount:      1,
	}
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()
	if err := Validate(validJob()); err != nil {
		t.Fatalf("expected valid job to pass, got: %v", err)
	}
}

func TestValidateRejectsRevisionedTaskDefinition(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.TaskDefinition = "my-task:3"
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error for revisioned task definition")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := verr.Fields["taskDefinition"]; !ok {
		t.Fatalf("expected taskDefinition field error, got %v", verr.Fields)
	}
}

func TestValidateRejectsUnresolvedWildcard(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.Schedule = "? 0 0"
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error for unresolved wildcard schedule")
	}
}

func TestValidateRejectsOutOfRangeTaskCount(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.TaskCount = 51
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error for out-of-range taskCount")
	}
}

func TestValidateRejectsScheduleEndBeforeStart(t *testing.T) {
	t.Parallel()
	j := validJob()
	start := mustParseTime(t, "2026-08-10T00:00:00Z")
	end := mustParseTime(t, "2026-08-01T00:00:00Z")
	j.ScheduleStart = &start
	j.ScheduleEnd = &end
	if err := Validate(j); err == nil {
		t.Fatal("expected error for scheduleEnd before scheduleStart")
	}
}

func TestValidateQueueDepthTriggerRequiresQueueName(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth}
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error: sqs trigger without queueName")
	}
}

func TestValidateAcceptsQueueDepthTriggerWithQueueName(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.Trigger = &Trigger{Type: TriggerTypeQueueDepth, QueueName: "tasks", MessagesPerTask: 5}
	if err := Validate(j); err != nil {
		t.Fatalf("expected valid trigger to pass, got: %v", err)
	}
}

func TestValidateRejectsMaxCountBelowTaskCount(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.TaskCount = 10
	j.MaxCount = 5
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error: maxCount below taskCount")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := verr.Fields["maxCount"]; !ok {
		t.Fatalf("expected maxCount field error, got %v", verr.Fields)
	}
}

func TestValidateRejectsDuplicateOverrideContainerName(t *testing.T) {
	t.Parallel()
	j := validJob()
	j.Overrides = []Override{
		{ContainerName: "main", Environment: map[string]string{"A": "1"}},
		{ContainerName: "main", Environment: map[string]string{"B": "2"}},
	}
	err := Validate(j)
	if err == nil {
		t.Fatal("expected error: duplicate override containerName")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := verr.Fields["overrides"]; !ok {
		t.Fatalf("expected overrides field error, got %v", verr.Fields)
	}
}

func TestSanitizeDropsEngineFieldsOnCreate(t *testing.T) {
	t.Parallel()
	lastRun := mustParseTime(t, "2026-08-01T00:00:00Z")
	j := validJob()
	j.LastRun = &lastRun
	Sanitize(j, nil)
	if j.LastRun != nil {
		t.Fatal("expected LastRun to be cleared for a new job")
	}
}

func TestSanitizePreservesEngineFieldsOnUpdate(t *testing.T) {
	t.Parallel()
	lastRun := mustParseTime(t, "2026-08-01T00:00:00Z")
	current := validJob()
	current.LastRun = &lastRun

	incoming := validJob()
	Sanitize(incoming, current)
	if incoming.LastRun == nil || !incoming.LastRun.Equal(lastRun) {
		t.Fatal("expected LastRun to carry over from current job")
	}
}
