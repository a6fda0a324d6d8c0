// Copyright 2018 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package workload

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/generator"
	"github.com/pingcap/go-socialbench/pkg/measurement"
	"github.com/pingcap/go-socialbench/pkg/prop"
	"github.com/pingcap/go-socialbench/pkg/social"
)

type contextKey string

const stateKey = contextKey("social")

// workerStats is one worker's private tally. Nothing here is shared; each
// worker writes its own summary file at cleanup.
type workerStats struct {
	start time.Time

	timelineCount int64
	timelineLat   time.Duration
	postCount     int64
	postLat       time.Duration
	errCount      int64

	keyBytes   int64
	valueBytes int64

	followers int64
	rejects   int64
}

type socialState struct {
	r        *rand.Rand
	threadID int

	tables     social.Tables
	tablesOpen bool

	stats workerStats

	// latency log, designated worker only
	latFile *os.File
	latBuf  *bufio.Writer
}

type socialWorkload struct {
	p *properties.Properties

	totalUsers    int64
	tweetsPerUser int64
	pageSize      int
	streamProb    float64
	outputDir     string
	silence       bool

	userChooser bench.Generator
}

// Ensure the chooser draws ids in [1, totalUsers].
func newUserChooser(p *properties.Properties, totalUsers int64) (bench.Generator, error) {
	wss := p.GetInt64(prop.WorkingSetSize, prop.WorkingSetSizeDefault)
	if wss > 0 {
		if wss > totalUsers {
			return nil, errors.Errorf("working set size %d exceeds total users %d", wss, totalUsers)
		}
		return generator.NewWorkingSet(totalUsers, wss), nil
	}

	switch d := p.GetString(prop.RequestDistribution, prop.RequestDistributionDefault); d {
	case "uniform":
		return generator.NewUniform(1, totalUsers), nil
	case "zipfian":
		return generator.NewZipfianWithRange(1, totalUsers, generator.ZipfianConstant), nil
	case "hotspot":
		hotsetFraction := p.GetFloat64(prop.HotspotDataFraction, prop.HotspotDataFractionDefault)
		hotopnFraction := p.GetFloat64(prop.HotspotOpnFraction, prop.HotspotOpnFractionDefault)
		return generator.NewHotspot(1, totalUsers, hotsetFraction, hotopnFraction), nil
	default:
		return nil, errors.Errorf("unknown request distribution %s", d)
	}
}

func (w *socialWorkload) Close() error {
	return nil
}

func (w *socialWorkload) InitThread(ctx context.Context, threadID int, _ int) context.Context {
	state := &socialState{
		r:        rand.New(rand.NewSource(time.Now().UnixNano() + int64(threadID)*1000)),
		threadID: threadID,
	}
	state.stats.start = time.Now()

	// only one worker logs per-operation latencies, the way one instrumented
	// client would in a fleet
	if threadID == 0 && w.p.GetString(prop.Command, "") == "run" {
		name := filepath.Join(w.outputDir, "s00_t00.lat")
		f, err := os.Create(name)
		if err != nil {
			fmt.Printf("cannot create latency log %s: %v\n", name, err)
		} else {
			state.latFile = f
			state.latBuf = bufio.NewWriter(f)
			fmt.Fprintf(state.latBuf, "userid txtype latency(us)\n")
		}
	}

	return context.WithValue(ctx, stateKey, state)
}

func (w *socialWorkload) CleanupThread(ctx context.Context) {
	state, ok := ctx.Value(stateKey).(*socialState)
	if !ok {
		return
	}
	if state.latBuf != nil {
		state.latBuf.Flush()
		state.latFile.Close()
	}
	if w.p.GetString(prop.Command, "") == "run" {
		w.writeSummary(state)
	}
}

// writeSummary emits the worker's private counters into its own .dat file.
func (w *socialWorkload) writeSummary(state *socialState) {
	name := filepath.Join(w.outputDir, fmt.Sprintf("t%02d.dat", state.threadID))
	f, err := os.Create(name)
	if err != nil {
		fmt.Printf("cannot create summary %s: %v\n", name, err)
		return
	}
	defer f.Close()

	s := &state.stats
	elapsed := time.Since(s.start)
	avg := func(total time.Duration, count int64) float64 {
		if count == 0 {
			return 0
		}
		return float64(total.Microseconds()) / float64(count)
	}
	avgFanout := float64(0)
	if s.postCount > 0 {
		avgFanout = float64(s.followers) / float64(s.postCount)
	}

	fmt.Fprintf(f, "runtime(s): %.2f\n", elapsed.Seconds())
	fmt.Fprintf(f, "timeline reads: %d\n", s.timelineCount)
	fmt.Fprintf(f, "timeline avg latency(us): %.2f\n", avg(s.timelineLat, s.timelineCount))
	fmt.Fprintf(f, "tweet posts: %d\n", s.postCount)
	fmt.Fprintf(f, "post avg latency(us): %.2f\n", avg(s.postLat, s.postCount))
	fmt.Fprintf(f, "post avg fan-out: %.2f\n", avgFanout)
	fmt.Fprintf(f, "stream update failures: %d\n", s.rejects)
	fmt.Fprintf(f, "errors: %d\n", s.errCount)
	fmt.Fprintf(f, "key bytes: %d\n", s.keyBytes)
	fmt.Fprintf(f, "value bytes: %d\n", s.valueBytes)
}

// Load streams the configured edge list into the store. It runs single-shot
// on the load command, before any transaction worker starts.
func (w *socialWorkload) Load(ctx context.Context, store bench.Store) error {
	path := w.p.GetString(prop.EdgeList, "")
	if len(path) == 0 {
		return errors.Errorf("property %s is required to load", prop.EdgeList)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Annotate(err, "open edge list")
	}
	defer f.Close()

	loader := &social.GraphLoader{
		TotalUsers:    uint64(w.totalUsers),
		TweetsPerUser: uint64(w.tweetsPerUser),
		Silence:       w.silence,
	}
	start := time.Now()
	stats, err := loader.Load(ctx, store, f)
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d edges for %d users (%d writes, %.2f MB) in %s\n",
		stats.Edges, stats.Users,
		stats.Writes,
		float64(stats.KeyBytes+stats.ValueBytes)/1000000.0,
		time.Since(start))
	return nil
}

func (w *socialWorkload) DoTransaction(ctx context.Context, store bench.Store) error {
	state := ctx.Value(stateKey).(*socialState)
	if !state.tablesOpen {
		tables, err := social.OpenTables(ctx, store)
		if err != nil {
			state.stats.errCount++
			return err
		}
		state.tables = tables
		state.tablesOpen = true
	}

	userID := uint64(w.userChooser.Next(state.r))

	if state.r.Float64() <= w.streamProb {
		return w.doTimeline(ctx, store, state, userID)
	}
	return w.doPost(ctx, store, state, userID)
}

func (w *socialWorkload) doTimeline(ctx context.Context, store bench.Store, state *socialState, userID uint64) error {
	start := time.Now()
	res, err := social.ReadTimeline(ctx, store, state.tables, userID, w.pageSize)
	lan := time.Since(start)
	if err != nil {
		state.stats.errCount++
		measurement.Measure("TIMELINE_READ_ERROR", start, lan)
		return err
	}

	s := &state.stats
	s.timelineCount++
	s.timelineLat += lan
	s.keyBytes += res.KeyBytes
	s.valueBytes += res.ValueBytes
	measurement.Measure("TIMELINE_READ", start, lan)
	state.logLatency(userID, "read", lan)
	return nil
}

func (w *socialWorkload) doPost(ctx context.Context, store bench.Store, state *socialState, userID uint64) error {
	start := time.Now()
	res, err := social.PostTweet(ctx, store, state.tables, userID, social.RandomTweetText(state.r))
	lan := time.Since(start)
	if err != nil {
		state.stats.errCount++
		measurement.Measure("TWEET_POST_ERROR", start, lan)
		return err
	}

	s := &state.stats
	s.postCount++
	s.postLat += lan
	s.keyBytes += res.KeyBytes
	s.valueBytes += res.ValueBytes
	s.followers += int64(res.Followers)
	s.rejects += int64(res.Rejected)
	measurement.Measure("TWEET_POST", start, lan)
	state.logLatency(userID, "post", lan)
	return nil
}

func (state *socialState) logLatency(userID uint64, txType string, lan time.Duration) {
	if state.latBuf == nil {
		return
	}
	fmt.Fprintf(state.latBuf, "%d %s %d\n", userID, txType, lan.Microseconds())
}

type socialCreator struct{}

func (socialCreator) Create(p *properties.Properties) (bench.Workload, error) {
	totalUsers := p.GetInt64(prop.TotalUsers, 0)
	if totalUsers <= 0 {
		return nil, errors.Errorf("property %s is required and must be positive", prop.TotalUsers)
	}

	w := &socialWorkload{
		p:             p,
		totalUsers:    totalUsers,
		tweetsPerUser: p.GetInt64(prop.TweetsPerUser, prop.TweetsPerUserDefault),
		pageSize:      p.GetInt(prop.PageSize, int(prop.PageSizeDefault)),
		streamProb:    p.GetFloat64(prop.StreamProbability, prop.StreamProbabilityDefault),
		outputDir:     p.GetString(prop.OutputDir, prop.OutputDirDefault),
		silence:       p.GetBool(prop.Silence, prop.SilenceDefault),
	}

	chooser, err := newUserChooser(p, totalUsers)
	if err != nil {
		return nil, err
	}
	w.userChooser = chooser

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, errors.Annotate(err, "create output dir")
	}

	return w, nil
}

func init() {
	bench.RegisterWorkloadCreator("social", socialCreator{})
}
