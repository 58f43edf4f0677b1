package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagEndpoint string
	log          zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fork-off",
	Short: "Snapshot the state of a running chain",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagEndpoint, "endpoint", "e", "ws://127.0.0.1:9944",
		"websocket endpoint of the node to fork off")
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cobra.OnInitialize(initConfig)
}

// initConfig lets FORK_OFF_* environment variables override flag defaults.
func initConfig() {
	viper.SetEnvPrefix("fork_off")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	flagEndpoint = viper.GetString("endpoint")
}
