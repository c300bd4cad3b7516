package manifests

import (
	"crypto/sha256"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

const (
	NameLabel      = "app.kubernetes.io/name"
	ManagedByLabel = "app.kubernetes.io/managed-by"
	AppName        = "jenkins"
	FieldManager   = "jenkinsctl"
)

// Item is a single renderable cluster object together with the
// resource it must be applied as.
type Item struct {
	GVR    schema.GroupVersionResource
	Object runtime.Object
}

// Bundle is the rendered desired state: the cluster objects in apply
// order plus the Helm values handed to the upstream Jenkins chart.
type Bundle struct {
	Items  []Item
	Values []byte
}

// Render turns a validated descriptor into the full bundle. Apply
// order is fixed: the cluster scoped PV first, then the claim, the
// JCasC config, the ingress rule and last the autoscaler policy.
func Render(d *descriptor.Descriptor) (*Bundle, error) {
	b := &Bundle{}
	if d.Storage.ExistingClaim == "" {
		b.Items = append(b.Items,
			Item{GVR: pvGVR, Object: newPersistentVolume(d)},
			Item{GVR: pvcGVR, Object: newPersistentVolumeClaim(d)},
		)
	}
	casc, err := newCascConfigMap(d)
	if err != nil {
		return nil, err
	}
	b.Items = append(b.Items,
		Item{GVR: configMapGVR, Object: casc},
		Item{GVR: ingressGVR, Object: newIngress(d)},
	)
	if d.Topology.Mode == descriptor.HaMode && d.Autoscaling.Enabled {
		b.Items = append(b.Items, Item{GVR: hpaGVR, Object: newAutoscaler(d)})
	}
	values, err := renderValues(d)
	if err != nil {
		return nil, err
	}
	b.Values = values
	return b, nil
}

// EncodeYAML writes the bundle objects as a multi document YAML stream.
func (b *Bundle) EncodeYAML(w io.Writer) error {
	for _, item := range b.Items {
		content, err := yaml.Marshal(item.Object)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "---\n%s", content); err != nil {
			return err
		}
	}
	return nil
}

// ResourceNames lists the rendered objects as kind/name pairs.
func (b *Bundle) ResourceNames() []string {
	var names []string
	for _, item := range b.Items {
		gvk := item.Object.GetObjectKind().GroupVersionKind()
		accessor, err := meta.Accessor(item.Object)
		if err != nil {
			continue
		}
		names = append(names, fmt.Sprintf("%s/%s", gvk.Kind, accessor.GetName()))
	}
	return names
}

// Checksum identifies the rendered desired state, it is stored with
// every revision so an unchanged descriptor can be detected.
func (b *Bundle) Checksum() (string, error) {
	h := sha256.New()
	if err := b.EncodeYAML(h); err != nil {
		return "", err
	}
	if _, err := h.Write(b.Values); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func commonLabels() map[string]string {
	return map[string]string{
		NameLabel:      AppName,
		ManagedByLabel: FieldManager,
	}
}

var (
	pvGVR        = schema.GroupVersionResource{Version: "v1", Resource: "persistentvolumes"}
	pvcGVR       = schema.GroupVersionResource{Version: "v1", Resource: "persistentvolumeclaims"}
	configMapGVR = schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
	ingressGVR   = schema.GroupVersionResource{Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"}
	hpaGVR       = schema.GroupVersionResource{Group: "autoscaling", Version: "v2", Resource: "horizontalpodautoscalers"}
)

// GVRForKind resolves the kinds this tool renders back to their
// resources, used when pruning from the inventory records.
func GVRForKind(group, kind string) (schema.GroupVersionResource, bool) {
	switch {
	case group == "" && kind == "PersistentVolume":
		return pvGVR, true
	case group == "" && kind == "PersistentVolumeClaim":
		return pvcGVR, true
	case group == "" && kind == "ConfigMap":
		return configMapGVR, true
	case group == "networking.k8s.io" && kind == "Ingress":
		return ingressGVR, true
	case group == "autoscaling" && kind == "HorizontalPodAutoscaler":
		return hpaGVR, true
	}
	return schema.GroupVersionResource{}, false
}

// WatchedGVRs are the resources the drift watcher keeps informers on.
func WatchedGVRs() []schema.GroupVersionResource {
	return []schema.GroupVersionResource{pvcGVR, configMapGVR, ingressGVR, hpaGVR}
}
