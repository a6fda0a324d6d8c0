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

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/magiconair/properties"
	"github.com/spf13/cobra"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/client"
	"github.com/pingcap/go-socialbench/pkg/measurement"
	"github.com/pingcap/go-socialbench/pkg/prop"
	"github.com/pingcap/go-socialbench/pkg/util"
	_ "github.com/pingcap/go-socialbench/pkg/workload"

	// Register memory store
	_ "github.com/pingcap/go-socialbench/db/memory"
	// Register redis store
	_ "github.com/pingcap/go-socialbench/db/redis"
	// Register etcd store
	_ "github.com/pingcap/go-socialbench/db/etcd"
)

var (
	propertyFiles  []string
	propertyValues []string

	globalContext context.Context
	globalCancel  context.CancelFunc

	globalStore    bench.Store
	globalWorkload bench.Workload
	globalProps    *properties.Properties
)

func initialGlobal(storeName string, onProperties func()) {
	globalProps = properties.NewProperties()
	if len(propertyFiles) > 0 {
		globalProps = properties.MustLoadFiles(propertyFiles, properties.UTF8, false)
	}

	for _, prop := range propertyValues {
		seps := strings.SplitN(prop, "=", 2)
		if len(seps) != 2 {
			log.Fatalf("bad property: `%s`, expected format `name=value`", prop)
		}
		globalProps.Set(seps[0], seps[1])
	}

	if onProperties != nil {
		onProperties()
	}

	addr := globalProps.GetString(prop.DebugPprof, prop.DebugPprofDefault)
	go func() {
		http.ListenAndServe(addr, nil)
	}()

	measurement.InitMeasure(globalProps)

	workloadName := globalProps.GetString(prop.Workload, "social")
	workloadCreator := bench.GetWorkloadCreator(workloadName)
	if workloadCreator == nil {
		util.Fatalf("workload %s is not registered", workloadName)
	}

	var err error
	if globalWorkload, err = workloadCreator.Create(globalProps); err != nil {
		util.Fatalf("create workload %s failed %v", workloadName, err)
	}

	storeCreator := bench.GetStoreCreator(storeName)
	if storeCreator == nil {
		util.Fatalf("%s is not registered", storeName)
	}
	if globalStore, err = storeCreator.Create(globalProps); err != nil {
		util.Fatalf("create store %s failed %v", storeName, err)
	}
	globalStore = client.StoreWrapper{Store: globalStore}
}

func main() {
	globalContext, globalCancel = context.WithCancel(context.Background())

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	closeDone := make(chan struct{}, 1)
	go func() {
		sig := <-sc
		fmt.Printf("\nGot signal [%v] to exit.\n", sig)
		globalCancel()

		select {
		case <-sc:
			// send signal again, return directly
			fmt.Printf("\nGot signal [%v] again to exit.\n", sig)
			os.Exit(1)
		case <-time.After(10 * time.Second):
			fmt.Print("\nWait 10s for closed, force exit\n")
			os.Exit(1)
		case <-closeDone:
			return
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "go-socialbench",
		Short: "Social-network workload benchmark",
	}

	rootCmd.AddCommand(
		newLoadCommand(),
		newRunCommand(),
	)

	cobra.EnablePrefixMatching = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(rootCmd.UsageString())
	}

	globalCancel()
	if globalStore != nil {
		globalStore.Close()
	}

	if globalWorkload != nil {
		globalWorkload.Close()
	}

	closeDone <- struct{}{}
}
