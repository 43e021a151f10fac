// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the implementation and entry point for the
// datastorectl command, which reads and writes Datastore entities.
//
// Example usage:
// $ ./datastorectl --project=my-project put Book moby title=Moby-Dick pages=635
// $ ./datastorectl --project=my-project get Book moby
// $ ./datastorectl --project=my-project list Book
// $ ./datastorectl --project=my-project gql "SELECT * FROM Book"
// $ ./datastorectl --project=my-project delete Book moby
//
// Entities are printed to stdout as one JSON object per line. Connection
// flags (--emulator, --database, --credentials_file, ...) are described in
// package rpcflags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/client"
	"github.com/google/clouddatastore/client/rpcflags"
	"github.com/google/clouddatastore/cmd"
	"github.com/google/clouddatastore/entity"
	"github.com/google/clouddatastore/monitoring"
	"github.com/google/clouddatastore/monitoring/opencensus"
	"github.com/google/clouddatastore/monitoring/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/encoding/protojson"
	"k8s.io/klog/v2"
)

var (
	projectID       = flag.String("project", os.Getenv("DATASTORE_PROJECT_ID"), "Google Cloud project ID")
	configFile      = flag.String("config", "", "Config file containing flags, file contents can be overridden by command line flags")
	metricsEndpoint = flag.String("metrics_endpoint", "", "Endpoint serving Prometheus metrics (host:port, empty means disabled)")
	traceFraction   = flag.Float64("trace_fraction", 0, "Fraction of RPCs traced to Stackdriver, 0 disables tracing")
)

// ctlOpts contains all user-supplied options required to run the program.
// It's meant to facilitate tests and focus flag reads to a single point.
type ctlOpts struct {
	project    string
	verb       string
	args       []string
	clientOpts []client.Option
}

var errNotFound = errors.New("entity not found")

func run(ctx context.Context, opts *ctlOpts, w io.Writer) error {
	if opts.project == "" {
		return errors.New("empty --project, please provide the Google Cloud project ID")
	}
	verb, ok := verbs[opts.verb]
	if !ok {
		return fmt.Errorf("unknown command %q", opts.verb)
	}
	if len(opts.args) < verb.minArgs || (!verb.variadic && len(opts.args) > verb.minArgs) {
		return fmt.Errorf("usage: %s %s", opts.verb, verb.usage)
	}

	c, err := client.New(ctx, opts.project, opts.clientOpts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return verb.run(ctx, c, opts.args, w)
}

type verbFunc func(ctx context.Context, c *client.Client, args []string, w io.Writer) error

var verbs = map[string]struct {
	usage    string
	minArgs  int
	variadic bool
	run      verbFunc
}{
	"put":    {usage: "KIND NAME [PROPERTY=VALUE ...]", minArgs: 2, variadic: true, run: put},
	"get":    {usage: "KIND NAME", minArgs: 2, run: get},
	"delete": {usage: "KIND NAME", minArgs: 2, run: del},
	"list":   {usage: "KIND", minArgs: 1, run: list},
	"gql":    {usage: "QUERY", minArgs: 1, variadic: true, run: gql},
}

func put(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	b := entity.NewBuilder().WithKeyName(args[0], args[1])
	for _, arg := range args[2:] {
		name, v, err := parseProperty(arg)
		if err != nil {
			return err
		}
		b.AddValue(name, v, true)
	}
	e := b.Build()
	if _, err := c.Upsert(ctx, e); err != nil {
		return err
	}
	return printEntities(w, e)
}

func get(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	e, err := c.LookupEntity(ctx, entity.NameKey(args[0], args[1], nil))
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%s %q: %w", args[0], args[1], errNotFound)
	}
	return printEntities(w, e)
}

func del(ctx context.Context, c *client.Client, args []string, _ io.Writer) error {
	_, err := c.Delete(ctx, entity.NameKey(args[0], args[1], nil))
	return err
}

func list(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	es, err := c.QueryAll(ctx, client.KindQuery(args[0]))
	if err != nil {
		return err
	}
	return printEntities(w, es...)
}

func gql(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	resp, err := c.RunGQL(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	var es []*datastorepb.Entity
	for _, r := range resp.GetBatch().GetEntityResults() {
		es = append(es, r.GetEntity())
	}
	return printEntities(w, es...)
}

func printEntities(w io.Writer, es ...*datastorepb.Entity) error {
	for _, e := range es {
		b, err := protojson.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}

// parseProperty parses NAME=VALUE or NAME:TYPE=VALUE. Without a type, the
// value is an integer, a double, a boolean or an RFC 3339 timestamp if it
// parses as one, and a string otherwise. TYPE is one of string, int, double,
// bool, time or null.
func parseProperty(arg string) (string, *datastorepb.Value, error) {
	lhs, value, ok := strings.Cut(arg, "=")
	if !ok || lhs == "" {
		return "", nil, fmt.Errorf("property %q is not NAME=VALUE", arg)
	}
	name, typ, typed := strings.Cut(lhs, ":")
	if name == "" {
		return "", nil, fmt.Errorf("property %q has no name", arg)
	}
	if !typed {
		return name, inferValue(value), nil
	}

	var v *datastorepb.Value
	var err error
	switch typ {
	case "string":
		v = entity.StringValue(value)
	case "int":
		var i int64
		i, err = strconv.ParseInt(value, 10, 64)
		v = entity.IntValue(i)
	case "double":
		var f float64
		f, err = strconv.ParseFloat(value, 64)
		v = entity.DoubleValue(f)
	case "bool":
		var b bool
		b, err = strconv.ParseBool(value)
		v = entity.BoolValue(b)
	case "time":
		var t time.Time
		t, err = time.Parse(time.RFC3339Nano, value)
		v = entity.TimeValue(t)
	case "null":
		v = entity.NullValue()
	default:
		return "", nil, fmt.Errorf("property %q has unknown type %q", arg, typ)
	}
	if err != nil {
		return "", nil, fmt.Errorf("property %q: %v", arg, err)
	}
	return name, v, nil
}

func inferValue(s string) *datastorepb.Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return entity.IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, "0123456789") {
		return entity.DoubleValue(f)
	}
	if s == "true" || s == "false" {
		return entity.BoolValue(s == "true")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return entity.TimeValue(t)
	}
	return entity.StringValue(s)
}

func newOptsFromFlags() (*ctlOpts, error) {
	clientOpts, err := rpcflags.NewClientOptionsFromFlags()
	if err != nil {
		return nil, err
	}
	return &ctlOpts{
		project:    *projectID,
		verb:       flag.Arg(0),
		args:       flag.Args()[min(1, flag.NArg()):],
		clientOpts: clientOpts,
	}, nil
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] COMMAND ARGS...\n\nCommands:\n", os.Args[0])
	for _, name := range []string{"put", "get", "delete", "list", "gql"} {
		fmt.Fprintf(flag.CommandLine.Output(), "  %s %s\n", name, verbs[name].usage)
	}
	fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	if *configFile != "" {
		if err := cmd.ParseFlagFile(*configFile); err != nil {
			klog.Exitf("Failed to load flags from config file %q: %s", *configFile, err)
		}
	}

	opts, err := newOptsFromFlags()
	if err != nil {
		klog.Exitf("Invalid flags: %v", err)
	}
	if *metricsEndpoint != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsEndpoint, nil); err != nil {
				klog.Errorf("Metrics endpoint %s: %v", *metricsEndpoint, err)
			}
		}()
		opts.clientOpts = append(opts.clientOpts, client.WithMetricFactory(prometheus.MetricFactory{}))
	}
	if *traceFraction > 0 {
		monitoring.SetStartSpan(opencensus.StartSpan)
		dialOpt, err := opencensus.EnableRPCClientTracing(*projectID, *traceFraction)
		if err != nil {
			klog.Exitf("Failed to enable tracing: %v", err)
		}
		opts.clientOpts = append(opts.clientOpts, client.WithDialOptions(dialOpt))
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		klog.Flush()
		fmt.Fprintf(os.Stderr, "datastorectl: %v\n", err)
		os.Exit(1)
	}
}
