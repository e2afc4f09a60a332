package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-netkit/internal/app"
	"github.com/samvad-hq/samvad-netkit/internal/logger"
	"github.com/samvad-hq/samvad-netkit/pkg/jsonvalue"
	"github.com/samvad-hq/samvad-netkit/pkg/request"
)

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("header", "H", nil, "Header to send as 'Key: Value' (repeatable)")
	cmd.Flags().String("stub", "", "Stub id answered by the debug provider")
	cmd.Flags().Int("repeat", 1, "Issue the request this many times concurrently")
}

func newGetCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "GET a path relative to base_url (or an absolute URL) and print the JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetStringArray("query")
			params := make([]request.QueryParam, 0, len(query))
			for _, q := range query {
				k, v, ok := strings.Cut(q, "=")
				if !ok {
					return fmt.Errorf("invalid query %q (expected key=value)", q)
				}
				params = append(params, request.Q(k, v))
			}
			return e.run(cmd, func(b *request.Builder) (request.Descriptor, error) {
				return b.Get(args[0], params...)
			})
		},
	}
	cmd.Flags().StringArrayP("query", "q", nil, "Query parameter as key=value (repeatable, order kept)")
	addRequestFlags(cmd)
	return cmd
}

func newPostCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post PATH",
		Short: "POST a JSON body and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetString("data")
			fields, _ := cmd.Flags().GetStringArray("field")

			return e.run(cmd, func(b *request.Builder) (request.Descriptor, error) {
				if data != "" {
					if _, err := jsonvalue.Parse([]byte(data)); err != nil {
						return request.Descriptor{}, fmt.Errorf("--data: %w", err)
					}
					return b.JSONPostBytes(args[0], []byte(data))
				}
				obj := jsonvalue.NewObject()
				for _, f := range fields {
					k, v, ok := strings.Cut(f, "=")
					if !ok {
						return request.Descriptor{}, fmt.Errorf("invalid field %q (expected key=value)", f)
					}
					obj.Set(k, jsonvalue.String(v))
				}
				return b.JSONPost(args[0], obj)
			})
		},
	}
	cmd.Flags().StringP("data", "d", "", "Raw JSON body")
	cmd.Flags().StringArrayP("field", "f", nil, "String field as key=value (repeatable, order kept)")
	addRequestFlags(cmd)
	return cmd
}

// run builds the descriptor, executes it and prints the decoded JSON.
func (e *env) run(cmd *cobra.Command, build func(*request.Builder) (request.Descriptor, error)) error {
	cfg, log, err := e.setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	desc, err := build(rt.Builder())
	if err != nil {
		return err
	}
	headers, _ := cmd.Flags().GetStringArray("header")
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("invalid header %q (expected 'Key: Value')", h)
		}
		desc = desc.WithHeader(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	if stub, _ := cmd.Flags().GetString("stub"); stub != "" {
		desc = desc.WithStub(stub)
	}

	repeat, _ := cmd.Flags().GetInt("repeat")
	if repeat < 1 {
		repeat = 1
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout+time.Second)
	defer cancel()

	results := make([]jsonvalue.Value, repeat)
	errs := make([]error, repeat)
	done := make(chan int, repeat)
	for i := 0; i < repeat; i++ {
		go func(i int) {
			results[i], errs[i] = rt.Fetch(ctx, desc)
			done <- i
		}(i)
	}
	for i := 0; i < repeat; i++ {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if err := printJSON(e, results[0]); err != nil {
		return err
	}
	if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
		return writeMetrics(e.out, rt.Metrics())
	}
	return nil
}

func printJSON(e *env, v jsonvalue.Value) error {
	raw, err := jsonvalue.Encode(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = e.out.Write(buf.Bytes())
	return err
}
