package main

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/controller"
	"github.com/jcodybaker/canctl/pkg/interfaces"
	"github.com/jcodybaker/canctl/pkg/registry"
)

const (
	keySupportedTypes    = "supported-types"
	keyIndexedInterfaces = "indexed-interfaces"
	keyManifest          = "manifest"
	keySlcandPath        = "slcand.path"
	keySlcandExtraArgs   = "slcand.extra-args"
	keyAcquireTimeout    = "acquire-timeout"
	keyKubeEnabled       = "kube.enabled"
	keyKubeconfig        = "kube.kubeconfig"
	keyKubeNamespace     = "kube.namespace"
	keyNodeName          = "node-name"
	keyBuses             = "buses"
)

// busEntry is a bus declared in the config file.
type busEntry struct {
	Name      string `mapstructure:"name"`
	Bitrate   uint32 `mapstructure:"bitrate"`
	Interface string `mapstructure:"interface"`
}

func (e busEntry) busConfig() (can.BusConfig, error) {
	id, err := can.ParseInterfaceID(e.Interface)
	if err != nil {
		return can.BusConfig{}, can.Errorf(can.BadInterfaceID, "%w", err)
	}
	return can.BusConfig{
		Name:        e.Name,
		Bitrate:     e.Bitrate,
		InterfaceID: id,
	}, nil
}

func busEntries(v *viper.Viper) ([]busEntry, error) {
	var entries []busEntry
	if err := v.UnmarshalKey(keyBuses, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", keyBuses, err)
	}
	return entries, nil
}

// busConfigs returns the buses to bring up at start.
func busConfigs(v *viper.Viper) ([]can.BusConfig, error) {
	entries, err := busEntries(v)
	if err != nil {
		return nil, err
	}
	out := make([]can.BusConfig, 0, len(entries))
	for i, e := range entries {
		config, err := e.busConfig()
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %q: %w", keyBuses, i, e.Name, err)
		}
		out = append(out, config)
	}
	return out, nil
}

// stringList reads a list which may also be given as a comma separated env var.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, s := range v.GetStringSlice(key) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func openerOptions(v *viper.Viper) interfaces.Options {
	return interfaces.Options{
		IndexedInterfaces: stringList(v, keyIndexedInterfaces),
		SlcandPath:        v.GetString(keySlcandPath),
		SlcandExtraArgs:   v.GetString(keySlcandExtraArgs),
	}
}

func controllerOptions(v *viper.Viper, ll log.FieldLogger) ([]controller.OptionFunc, error) {
	opts := []controller.OptionFunc{controller.WithLogger(ll)}
	if v.IsSet(keySupportedTypes) {
		var types []can.InterfaceType
		for _, name := range stringList(v, keySupportedTypes) {
			t, err := can.InterfaceTypeFromString(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", keySupportedTypes, err)
			}
			types = append(types, t)
		}
		opts = append(opts, controller.WithSupportedTypes(types))
	}
	if v.IsSet(keyAcquireTimeout) {
		opts = append(opts, controller.WithAcquireTimeout(v.GetDuration(keyAcquireTimeout)))
	}
	return opts, nil
}

func newController(v *viper.Viper, reg registry.Registry) (*controller.Controller, error) {
	opts, err := controllerOptions(v, ll)
	if err != nil {
		return nil, err
	}
	return controller.New(interfaces.NewOpener(openerOptions(v)), reg, opts...)
}
