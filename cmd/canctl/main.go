package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var debug bool
var configFile string
var ctx context.Context
var ll log.FieldLogger

var rootCmd = &cobra.Command{
	Use:   "canctl",
	Short: "Manage CAN bus interfaces",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
		if isatty.IsTerminal(os.Stdout.Fd()) {
			log.SetFormatter(&log.TextFormatter{})
		}
		if configFile == "" {
			return nil
		}
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
		ll.WithField("config", viper.ConfigFileUsed()).Debug("loaded config file")
		return nil
	},
	SilenceUsage: true,
}

func init() {
	viper.SetEnvPrefix("canctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.StringSlice("supported-types", nil, "interface types to allow (default every type available on this host)")
	flags.StringSlice("indexed-interfaces", nil, "socketcan interfaces addressed by indexed:N, in index order")
	flags.String("slcand-path", "", "path to the slcand userspace driver (default slcand on $PATH)")
	flags.String("slcand-extra-args", "", "extra arguments to pass to slcand")
	viper.BindPFlag(keySupportedTypes, flags.Lookup("supported-types"))
	viper.BindPFlag(keyIndexedInterfaces, flags.Lookup("indexed-interfaces"))
	viper.BindPFlag(keySlcandPath, flags.Lookup("slcand-path"))
	viper.BindPFlag(keySlcandExtraArgs, flags.Lookup("slcand-extra-args"))

	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	ctx = signalContext(context.Background())
	ll = log.WithContext(ctx)
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1) // exit hard for the impatient
	}()

	return ctx
}
