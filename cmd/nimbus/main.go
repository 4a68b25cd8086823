//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Command nimbus serves the emulator on a local endpoint, the drop-in
// target for aws cli and SDK integration tests.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fogfish/nimbus"
)

var version = "dev"

func main() {
	if err := root().Execute(); err != nil {
		os.Exit(1)
	}
}

func root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nimbus",
		Short: "in-memory emulator of AWS S3 and DynamoDB",
	}
	cmd.AddCommand(serve(), about())
	return cmd
}

func about() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("nimbus " + version)
		},
	}
}

func serve() *cobra.Command {
	var (
		addr    string
		region  string
		account string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the emulator endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()

			emu, err := nimbus.New(
				nimbus.WithRegion(region),
				nimbus.WithAccount(account),
			)
			if err != nil {
				return err
			}

			router := chi.NewRouter()
			router.Use(middleware.RequestID)
			router.Use(middleware.Recoverer)
			router.Use(accessLog(log))
			router.Handle("/*", emu)

			log.Info("listening",
				zap.String("addr", addr),
				zap.String("region", region),
			)
			return http.ListenAndServe(addr, router)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":4566", "listen address")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "emulated region")
	cmd.Flags().StringVar(&account, "account", "000000000000", "emulated account id")
	return cmd
}

// accessLog emits one line per request.
func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			probe := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(probe, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("target", r.Header.Get("X-Amz-Target")),
				zap.Int("status", probe.Status()),
				zap.Duration("elapsed", time.Since(started)),
			)
		})
	}
}
