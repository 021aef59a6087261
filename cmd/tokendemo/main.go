// Copyright 2015 Comcast Cable Communications Management, LLC
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
//
// End Copyright

// Command tokendemo builds an oauth2coord.Coordinator from a YAML config
// or the environment and prints get_token() results in a loop, for manual
// smoke-testing against a real or mock token endpoint. Not part of tested
// surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajaygodbole7/fluxmap/oauth2coord"
	"github.com/ajaygodbole7/fluxmap/transform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, envPrefix string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "tokendemo",
		Short: "Poll an OAuth2 token coordinator and print refreshed tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, envPrefix)
			if err != nil {
				return err
			}

			coord, err := oauth2coord.NewCoordinator(cfg, oauth2coord.WithLogger(transform.NewSimpleLogger(os.Stderr)))
			if err != nil {
				return err
			}
			defer coord.Close()

			ctx, cancel := context.WithCancel(context.Background())
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			go func() {
				<-sigCh
				cancel()
			}()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					tok, err := coord.GetToken(ctx)
					if err != nil {
						fmt.Fprintf(os.Stderr, "get_token failed: %s\n", err)
						continue
					}
					fmt.Println(tok)
				}
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML Coordinator config (default: read from environment)")
	cmd.Flags().StringVar(&envPrefix, "env-prefix", "TOKENDEMO", "envconfig prefix used when --config is not given")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "how often to call get_token")

	return cmd
}

func loadConfig(path, envPrefix string) (*oauth2coord.Config, error) {
	if path == "" {
		return oauth2coord.LoadConfigFromEnv(envPrefix)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return oauth2coord.LoadConfigFromYAML(data)
}
