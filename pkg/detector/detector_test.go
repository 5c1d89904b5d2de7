/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package detector

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
)

type fakeStore struct {
	victims []dbclient.OfflineVictim
	expired []string
	stalled []string
	stuck   []*dbclient.StuckJob

	offlineErr error
	expiredErr error
	stalledErr error

	gotLiveness   time.Duration
	gotGrace      time.Duration
	gotEscalation time.Duration
	gotProgress   time.Duration
}

func (s *fakeStore) MarkStaleAgentsOffline(_ context.Context, threshold, grace time.Duration) ([]dbclient.OfflineVictim, error) {
	s.gotLiveness, s.gotGrace = threshold, grace
	return s.victims, s.offlineErr
}

func (s *fakeStore) FailExpiredRecoveries(context.Context) ([]string, error) {
	return s.expired, s.expiredErr
}

func (s *fakeStore) FailStalledJobs(_ context.Context, escalation time.Duration) ([]string, error) {
	s.gotEscalation = escalation
	return s.stalled, s.stalledErr
}

func (s *fakeStore) SelectStuckJobs(_ context.Context, threshold time.Duration) ([]*dbclient.StuckJob, error) {
	s.gotProgress = threshold
	return s.stuck, nil
}

func newDetector(store Store, kicker func()) *Detector {
	return NewWithThresholds(store, 90*time.Second, 2*time.Minute, time.Hour, 10*time.Minute, kicker)
}

func TestScanPassesThresholds(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, newDetector(store, nil).Scan(context.Background()))
	assert.Equal(t, 90*time.Second, store.gotLiveness)
	assert.Equal(t, 2*time.Minute, store.gotGrace)
	assert.Equal(t, time.Hour, store.gotEscalation)
}

func TestScanKicksDispatcherOnDetach(t *testing.T) {
	kicked := 0
	store := &fakeStore{
		victims: []dbclient.OfflineVictim{
			{AgentId: "agent-1"},
			{AgentId: "agent-2", DetachedJobId: "job-1", JobWasDetached: true},
		},
	}
	require.NoError(t, newDetector(store, func() { kicked++ }).Scan(context.Background()))
	assert.Equal(t, 1, kicked)
}

func TestScanNoKickWithoutDetach(t *testing.T) {
	kicked := 0
	store := &fakeStore{victims: []dbclient.OfflineVictim{{AgentId: "agent-1"}}}
	require.NoError(t, newDetector(store, func() { kicked++ }).Scan(context.Background()))
	assert.Zero(t, kicked)
}

func TestScanContinuesPastPassFailure(t *testing.T) {
	store := &fakeStore{
		offlineErr: errors.New("liveness scan broke"),
		stalled:    []string{"job-9"},
	}
	err := newDetector(store, nil).Scan(context.Background())
	require.Error(t, err)
	// the later passes still ran
	assert.Equal(t, time.Hour, store.gotEscalation)
	assert.Contains(t, err.Error(), "liveness scan broke")
}

func TestScanAggregatesAllErrors(t *testing.T) {
	store := &fakeStore{
		offlineErr: errors.New("first"),
		expiredErr: errors.New("second"),
		stalledErr: errors.New("third"),
	}
	err := newDetector(store, nil).Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "third")
}

func TestReport(t *testing.T) {
	store := &fakeStore{stuck: []*dbclient.StuckJob{
		{JobId: "job-1", Status: dbclient.JobProcessing, Classification: dbclient.StuckNoProgress, StalledMinutes: 42},
		{JobId: "job-2", Status: dbclient.JobCreated, Classification: dbclient.StuckUnassigned, StalledMinutes: 15},
	}}
	stuck, err := newDetector(store, nil).Report(context.Background())
	require.NoError(t, err)
	require.Len(t, stuck, 2)
	assert.Equal(t, 10*time.Minute, store.gotProgress)
}
