/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Daskott/raksha/colors"
	"github.com/Daskott/raksha/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	config *viper.Viper

	serverConfigFile string
	envFile          string
	isDevEnv         bool

	warningLabel = colors.Yellow("Warning:")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(loadEnvFile)

	rootCmd = createRootCmd()
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)

	rootCmd.AddCommand(createServerCmd())
	rootCmd.AddCommand(createPurgeCmd())
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "raksha",
		Short: `raksha is a personal safety backend.

It verifies users' identity documents, manages their emergency contacts
and sends SOS alerts by SMS to those contacts & the police.`,
	}

	cmd.PersistentFlags().StringVar(&serverConfigFile, "sconfig", "", "config for server")
	cmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to load before reading the config")
	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")

	return cmd
}

// loadEnvFile loads secrets from the env file if it exists. Existing env vars are not overridden.
func loadEnvFile() {
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		fmt.Fprintln(os.Stderr, warningLabel, "unable to load env file:", err)
	}
}

// serverConfig reads the server config from --sconfig, or dev/config/server.yml in dev mode.
// Secrets can also be set with env vars e.g. TWILIO_AUTH_TOKEN.
func serverConfig() (*viper.Viper, error) {
	config = viper.New()

	configFile := serverConfigFile
	if isDevEnv && configFile == "" {
		configFile = devConfigFilePath()
	}

	if configFile == "" {
		return nil, formattedError("must set the server config with --sconfig")
	}

	config.SetConfigFile(configFile)

	for key, env := range map[string]string{
		"sqlite.passPhrase":             "SQLITE_PASS_PHRASE",
		"raksha.privateKeyPem":          "RAKSHA_PRIVATE_KEY_PEM",
		"twilio.accountSid":             "TWILIO_ACCOUNT_SID",
		"twilio.authToken":              "TWILIO_AUTH_TOKEN",
		"twilio.fromNumber":             "TWILIO_PHONE_NUMBER",
		"twilio.messagingServiceSid":    "TWILIO_MESSAGING_SERVICE_SID",
		"google.applicationCredentials": "GOOGLE_APPLICATION_CREDENTIALS",
	} {
		// The env var overrides whatever is in the config file
		if err := config.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	config.AutomaticEnv() // read in environment variables that match

	if err := config.ReadInConfig(); err != nil {
		return nil, formattedError("error reading server config file: %v", err)
	}

	return config, nil
}

func devConfigFilePath() string {
	configDir, err := os.Getwd()
	cobra.CheckErr(err)

	return filepath.Join(configDir, "dev", "config", "server.yml")
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(colors.Red(format), a...)
}
