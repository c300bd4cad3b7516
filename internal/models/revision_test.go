package models

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func randomChecksum() string {
	const charset = "abcdef0123456789"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, 64)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

func TestRevisionLifecycle(t *testing.T) {
	testLogger, _ := zap.NewDevelopment()
	svc := NewRevisionModelSvc(testDb, testLogger)

	revision, err := svc.Create("topology:\n  mode: ha\n", randomChecksum())
	assert.NoError(t, err)
	assert.Equal(t, RevisionPending, revision.Status)
	assert.NotEmpty(t, revision.UID)

	// pending revisions are invisible to LatestApplied
	latest, err := svc.LatestApplied()
	assert.NoError(t, err)
	if latest != nil {
		assert.NotEqual(t, revision.ID, latest.ID)
	}

	records := []ResourceRecord{
		{ResourceID: "jenkins_jenkins_networking.k8s.io_Ingress", APIVersion: "networking.k8s.io/v1"},
		{ResourceID: "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler", APIVersion: "autoscaling/v2"},
	}
	assert.NoError(t, svc.MarkApplied(revision, records))

	latest, err = svc.LatestApplied()
	assert.NoError(t, err)
	assert.Equal(t, revision.ID, latest.ID)
	assert.Len(t, latest.Resources, 2)
}

func TestRevisionUnchangedChecksum(t *testing.T) {
	testLogger, _ := zap.NewDevelopment()
	svc := NewRevisionModelSvc(testDb, testLogger)
	checksum := randomChecksum()

	revision, err := svc.Create("controller:\n  replicas: 1\n", checksum)
	assert.NoError(t, err)
	assert.NoError(t, svc.MarkApplied(revision, nil))

	_, err = svc.Create("controller:\n  replicas: 1\n", checksum)
	assert.ErrorIs(t, err, ErrUnchanged)
}

func TestRevisionMarkFailed(t *testing.T) {
	testLogger, _ := zap.NewDevelopment()
	svc := NewRevisionModelSvc(testDb, testLogger)

	revision, err := svc.Create("controller:\n  replicas: 2\n", randomChecksum())
	assert.NoError(t, err)
	assert.NoError(t, svc.MarkFailed(revision, "apply Ingress jenkins: forbidden"))

	revisions, err := svc.List(1)
	assert.NoError(t, err)
	assert.Equal(t, RevisionFailed, revisions[0].Status)
	assert.Contains(t, revisions[0].Message, "forbidden")
}

func TestRevisionList(t *testing.T) {
	testLogger, _ := zap.NewDevelopment()
	svc := NewRevisionModelSvc(testDb, testLogger)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(fmt.Sprintf("rev: %d\n", i), randomChecksum())
		assert.NoError(t, err)
	}
	revisions, err := svc.List(2)
	assert.NoError(t, err)
	assert.Len(t, revisions, 2)
	assert.Greater(t, revisions[0].ID, revisions[1].ID)
}

func TestOrphans(t *testing.T) {
	prev := []ResourceRecord{
		{ResourceID: "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler"},
		{ResourceID: "jenkins_jenkins_networking.k8s.io_Ingress"},
	}
	next := []ResourceRecord{
		{ResourceID: "jenkins_jenkins_networking.k8s.io_Ingress"},
	}
	orphans := Orphans(prev, next)
	assert.Len(t, orphans, 1)
	assert.Equal(t, "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler", orphans[0].ResourceID)

	assert.Empty(t, Orphans(next, prev))
	assert.Empty(t, Orphans(nil, next))
}

func TestDriftEventUpsert(t *testing.T) {
	testLogger, _ := zap.NewDevelopment()
	revisionSvc := NewRevisionModelSvc(testDb, testLogger)
	driftSvc := NewDriftModelSvc(testDb, testLogger)

	revision, err := revisionSvc.Create("topology:\n  mode: single\n", randomChecksum())
	assert.NoError(t, err)

	event := &DriftEvent{
		RevisionID: revision.ID,
		ResourceID: "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler",
		Field:      "spec.maxReplicas",
		Expected:   "8",
		Observed:   "12",
	}
	assert.NoError(t, driftSvc.Record(event))

	// second observation of the same field refreshes the value
	assert.NoError(t, driftSvc.Record(&DriftEvent{
		RevisionID: revision.ID,
		ResourceID: event.ResourceID,
		Field:      event.Field,
		Expected:   "8",
		Observed:   "16",
	}))

	events, err := driftSvc.ListForRevision(revision.ID)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "16", events[0].Observed)

	assert.NoError(t, driftSvc.Clear(revision.ID))
	events, err = driftSvc.ListForRevision(revision.ID)
	assert.NoError(t, err)
	assert.Empty(t, events)
}
