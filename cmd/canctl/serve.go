package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Showmax/go-fqdn"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/jcodybaker/canctl/pkg/registry"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	RunE:  runServe,
	Use:   "serve",
	Short: "Run the CAN controller",
	Long: `Run the CAN controller. Buses listed under "buses" in the config file are
brought up at start and brought down again on SIGINT or SIGTERM.`,
}

func init() {
	serveCmd.Flags().StringSlice("manifest", nil, "service names declared statically; they stay registered after their bus goes down")
	serveCmd.Flags().Duration("acquire-timeout", 0, "how long bringing up a single interface may take (default 15s)")
	serveCmd.Flags().Bool("kube", false, "mirror published buses into Kubernetes ConfigMaps")
	serveCmd.Flags().String("kubeconfig", "", "path to kubeconfig file for the registry mirror")
	serveCmd.Flags().String("kube-namespace", "", "namespace for the registry mirror (default from kubeconfig)")
	serveCmd.Flags().String("node-name", "", "node name recorded in the registry mirror (default fqdn)")

	viper.BindPFlag(keyManifest, serveCmd.Flags().Lookup("manifest"))
	viper.BindPFlag(keyAcquireTimeout, serveCmd.Flags().Lookup("acquire-timeout"))
	viper.BindPFlag(keyKubeEnabled, serveCmd.Flags().Lookup("kube"))
	viper.BindPFlag(keyKubeconfig, serveCmd.Flags().Lookup("kubeconfig"))
	viper.BindPFlag(keyKubeNamespace, serveCmd.Flags().Lookup("kube-namespace"))
	viper.BindPFlag(keyNodeName, serveCmd.Flags().Lookup("node-name"))
	viper.SetDefault(keyNodeName, fqdn.Get())

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	buses, err := busConfigs(v)
	if err != nil {
		return err
	}

	var reg registry.Registry = registry.NewMemory(registry.WithManifest(stringList(v, keyManifest)...))
	if v.GetBool(keyKubeEnabled) {
		if reg, err = kubeRegistry(v, reg); err != nil {
			return fmt.Errorf("registry mirror: %w", err)
		}
	}

	c, err := newController(v, reg)
	if err != nil {
		return fmt.Errorf("initializing controller: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.Close(closeCtx)
	}()
	ll.WithField("supported", typeNames(c.GetSupportedInterfaceTypes())).Info("controller started")

	for _, config := range buses {
		// Failures are logged by the controller; the remaining buses still come up.
		c.UpInterface(ctx, config)
	}

	<-ctx.Done()
	ll.Info("shutting down")
	return nil
}

func kubeRegistry(v *viper.Viper, inner registry.Registry) (*registry.Kube, error) {
	node := v.GetString(keyNodeName)
	if errs := validation.IsValidLabelValue(node); len(errs) > 0 {
		return nil, fmt.Errorf("%s %q: %s", keyNodeName, node, strings.Join(errs, " "))
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig := v.GetString(keyKubeconfig); kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	config := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})

	namespace := v.GetString(keyKubeNamespace)
	if namespace == "" {
		var err error
		if namespace, _, err = config.Namespace(); err != nil {
			return nil, fmt.Errorf("resolving namespace: %w", err)
		}
	}
	if errs := validation.IsDNS1123Label(namespace); len(errs) > 0 {
		return nil, fmt.Errorf("%s %q: %s", keyKubeNamespace, namespace, strings.Join(errs, " "))
	}

	restConfig, err := config.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("building kubernetes client: %w", err)
	}
	ll.WithFields(log.Fields{
		"kube.namespace": namespace,
		"kube.node":      node,
	}).Info("mirroring registry into kubernetes")
	return registry.NewKube(inner, clientset, namespace, node, ll), nil
}
