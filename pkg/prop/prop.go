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

package prop

// Properties
const (
	Workload = "workload"

	// graph shape
	TotalUsers           = "totalusers"
	TweetsPerUser        = "tweetsperuser"
	TweetsPerUserDefault = int64(1)
	EdgeList             = "edgelist"

	// workload mix
	StreamProbability        = "streamprobability"
	StreamProbabilityDefault = float64(0.9)
	PageSize                 = "pagesize"
	PageSizeDefault          = int64(8)
	WorkingSetSize           = "workingsetsize"
	WorkingSetSizeDefault    = int64(0)
	// "uniform", "zipfian", "hotspot"; ignored when workingsetsize > 0
	RequestDistribution        = "requestdistribution"
	RequestDistributionDefault = "uniform"
	HotspotDataFraction        = "hotspotdatafraction"
	HotspotDataFractionDefault = float64(0.2)
	HotspotOpnFraction         = "hotspotopnfraction"
	HotspotOpnFractionDefault  = float64(0.8)

	// run shape
	ThreadCount        = "threadcount"
	ThreadCountDefault = int64(1)
	// wall-clock run time in minutes
	RunTime        = "runtime"
	RunTimeDefault = float64(0.1)
	WarmUpTime     = "warmuptime"

	OutputDir        = "outputdir"
	OutputDirDefault = "./"

	LogInterval = "measurement.interval"

	MeasurementType          = "measurementtype"
	MeasurementTypeDefault   = "histogram"
	MeasurementRawOutputFile = "measurement.output_file"

	DebugPprof        = "debug.pprof"
	DebugPprofDefault = ":6060"

	Silence        = "silence"
	SilenceDefault = true

	Command = "command"

	OutputStyle = "outputstyle"
)
