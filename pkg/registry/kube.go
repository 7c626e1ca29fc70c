package registry

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/client-go/kubernetes"

	"github.com/jcodybaker/canctl/pkg/can"
)

const (
	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "canctl"
	busLabel       = "canctl/bus"
	nodeLabel      = "canctl/node"

	dataName          = "name"
	dataInterfaceType = "interfaceType"
	dataInterfaceID   = "interfaceId"
	dataBitrate       = "bitrate"
	dataNode          = "node"
	dataInstance      = "instance"
)

// configMapNamespace seeds the deterministic ConfigMap names, so any service
// name maps to a valid, collision free object name.
var configMapNamespace = uuid.MustParse("5c1c7f5e-7c36-4b4e-9d39-3f6f2cf0a0d1")

// Entry is a bus as mirrored into Kubernetes.
type Entry struct {
	Name        string
	Type        can.InterfaceType
	InterfaceID string
	Bitrate     uint32
	Node        string
	Instance    string
}

// Kube decorates a Registry, mirroring every published bus into a labelled
// ConfigMap so off-device consumers can discover which buses are up.
type Kube struct {
	Registry

	clientset kubernetes.Interface
	namespace string
	node      string
	ll        log.FieldLogger
}

var _ Registry = &Kube{}

// NewKube returns a Kube registry which keeps handles in inner and mirrors them
// into namespace. node is recorded on every entry.
func NewKube(inner Registry, clientset kubernetes.Interface, namespace, node string, ll log.FieldLogger) *Kube {
	if ll == nil {
		ll = log.StandardLogger()
	}
	return &Kube{
		Registry:  inner,
		clientset: clientset,
		namespace: namespace,
		node:      node,
		ll:        ll.WithField("k8s.namespace", namespace),
	}
}

// Publish creates or updates the ConfigMap for name, then publishes bus to the
// inner registry.
func (k *Kube) Publish(ctx context.Context, name string, bus Bus) error {
	if bus == nil {
		return fmt.Errorf("publishing %q: nil bus", name)
	}
	cm := k.configMap(name, bus)
	ll := k.ll.WithFields(log.Fields{
		"k8s.kind": "ConfigMap",
		"k8s.name": cm.Name,
		"bus.name": name,
	})
	client := k.clientset.CoreV1().ConfigMaps(k.namespace)
	_, err := client.Create(ctx, cm, metav1.CreateOptions{})
	switch {
	case k8sErrors.IsAlreadyExists(err):
		existing, err := client.Get(ctx, cm.Name, metav1.GetOptions{})
		if err != nil {
			return fmt.Errorf("fetching existing ConfigMap %q: %w", cm.Name, err)
		}
		existing.Labels = cm.Labels
		existing.Data = cm.Data
		if _, err = client.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("updating ConfigMap %q: %w", cm.Name, err)
		}
		ll.Debug("replaced stale bus ConfigMap")
	case err == nil:
		ll.Debug("created bus ConfigMap")
	default:
		return fmt.Errorf("creating ConfigMap %q: %w", cm.Name, err)
	}

	if err = k.Registry.Publish(ctx, name, bus); err != nil {
		if delErr := k.deleteConfigMap(ctx, cm.Name); delErr != nil {
			ll.WithError(delErr).Warn("failed to roll back bus ConfigMap")
		}
		return err
	}
	return nil
}

// Unpublish removes name from the inner registry and deletes its ConfigMap.
// The ConfigMap is deleted even when the inner entry is static, since the bus
// behind it is down.
func (k *Kube) Unpublish(ctx context.Context, name string) error {
	innerErr := k.Registry.Unpublish(ctx, name)
	if err := k.deleteConfigMap(ctx, ConfigMapName(name)); err != nil {
		return err
	}
	return innerErr
}

// List returns the buses mirrored into the namespace, from any node.
func (k *Kube) List(ctx context.Context) ([]Entry, error) {
	selector := labels.SelectorFromSet(labels.Set{managedByLabel: managedByValue})
	list, err := k.clientset.CoreV1().ConfigMaps(k.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing bus ConfigMaps: %w", err)
	}
	var out []Entry
	for _, cm := range list.Items {
		entry, err := entryFromConfigMap(&cm)
		if err != nil {
			k.ll.WithFields(log.Fields{
				"k8s.kind": "ConfigMap",
				"k8s.name": cm.Name,
			}).WithError(err).Warn("ignoring malformed bus ConfigMap")
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (k *Kube) deleteConfigMap(ctx context.Context, name string) error {
	err := k.clientset.CoreV1().ConfigMaps(k.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !k8sErrors.IsNotFound(err) {
		return fmt.Errorf("deleting ConfigMap %q: %w", name, err)
	}
	return nil
}

func (k *Kube) configMap(name string, bus Bus) *corev1.ConfigMap {
	config := bus.Config()
	l := map[string]string{managedByLabel: managedByValue}
	if len(validation.IsValidLabelValue(name)) == 0 {
		l[busLabel] = name
	}
	if k.node != "" && len(validation.IsValidLabelValue(k.node)) == 0 {
		l[nodeLabel] = k.node
	}
	data := map[string]string{
		dataName:     name,
		dataBitrate:  strconv.FormatUint(uint64(config.Bitrate), 10),
		dataNode:     k.node,
		dataInstance: bus.InstanceID(),
	}
	if config.InterfaceID != nil {
		data[dataInterfaceType] = config.InterfaceID.Type().String()
		data[dataInterfaceID] = config.InterfaceID.String()
	}
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConfigMapName(name),
			Namespace: k.namespace,
			Labels:    l,
		},
		Data: data,
	}
}

// ConfigMapName returns the ConfigMap a bus named name is mirrored to.
func ConfigMapName(name string) string {
	return "canbus-" + uuid.NewSHA1(configMapNamespace, []byte(name)).String()
}

func entryFromConfigMap(cm *corev1.ConfigMap) (Entry, error) {
	entry := Entry{
		Name:        cm.Data[dataName],
		InterfaceID: cm.Data[dataInterfaceID],
		Node:        cm.Data[dataNode],
		Instance:    cm.Data[dataInstance],
	}
	if entry.Name == "" {
		return Entry{}, fmt.Errorf("missing %q", dataName)
	}
	var err error
	entry.Type, err = can.InterfaceTypeFromString(cm.Data[dataInterfaceType])
	if err != nil {
		return Entry{}, err
	}
	bitrate, err := strconv.ParseUint(cm.Data[dataBitrate], 10, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing bitrate: %w", err)
	}
	entry.Bitrate = uint32(bitrate)
	return entry, nil
}
