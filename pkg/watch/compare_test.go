package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
)

func prodDescriptor() *descriptor.Descriptor {
	d := &descriptor.Descriptor{
		Topology:   descriptor.Topology{Mode: descriptor.HaMode},
		Controller: descriptor.Controller{Replicas: 4},
		Storage: descriptor.Storage{
			EfsFileSystemID: "fs-0123456789abcdef0",
		},
		Ingress: descriptor.Ingress{
			Host:      "jenkins-prod.example.com",
			TLSSecret: "jenkins-prod-tls",
		},
		Autoscaling: descriptor.Autoscaling{
			Enabled:              true,
			MinReplicas:          4,
			MaxReplicas:          8,
			TargetCPUUtilization: 70,
		},
	}
	d.Default()
	return d
}

func renderedObjects(t *testing.T, d *descriptor.Descriptor) map[string]*unstructured.Unstructured {
	t.Helper()
	bundle, err := manifests.Render(d)
	assert.NoError(t, err)
	objects := map[string]*unstructured.Unstructured{}
	for _, item := range bundle.Items {
		content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(item.Object)
		assert.NoError(t, err)
		objects[item.GVR.Resource] = &unstructured.Unstructured{Object: content}
	}
	return objects
}

func TestCompareCleanCluster(t *testing.T) {
	d := prodDescriptor()
	for resource, obj := range renderedObjects(t, d) {
		gvr := schema.GroupVersionResource{Resource: resource}
		events, err := Compare(gvr, d, obj)
		assert.NoError(t, err)
		assert.Empty(t, events, "unexpected drift for %s", resource)
	}
}

func TestCompareIngressDrift(t *testing.T) {
	d := prodDescriptor()
	obj := renderedObjects(t, d)["ingresses"]
	// SetNestedField cannot address list items, mutate via the slice
	rules, _, err := unstructured.NestedSlice(obj.Object, "spec", "rules")
	assert.NoError(t, err)
	rules[0].(map[string]interface{})["host"] = "hijacked.example.com"
	assert.NoError(t, unstructured.SetNestedSlice(obj.Object, rules, "spec", "rules"))

	events, err := Compare(schema.GroupVersionResource{Resource: "ingresses"}, d, obj)
	assert.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.Equal(t, "spec.rules[0].host", events[0].Field)
	assert.Equal(t, "jenkins-prod.example.com", events[0].Expected)
	assert.Equal(t, "hijacked.example.com", events[0].Observed)
}

func TestCompareIngressTLSHostMismatch(t *testing.T) {
	d := prodDescriptor()
	obj := renderedObjects(t, d)["ingresses"]
	tls, _, err := unstructured.NestedSlice(obj.Object, "spec", "tls")
	assert.NoError(t, err)
	tls[0].(map[string]interface{})["hosts"] = []interface{}{"other.example.com"}
	assert.NoError(t, unstructured.SetNestedSlice(obj.Object, tls, "spec", "tls"))

	events, err := Compare(schema.GroupVersionResource{Resource: "ingresses"}, d, obj)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "spec.tls[0].hosts", events[0].Field)
}

func TestCompareAutoscalerDrift(t *testing.T) {
	d := prodDescriptor()
	obj := renderedObjects(t, d)["horizontalpodautoscalers"]
	assert.NoError(t, unstructured.SetNestedField(obj.Object,
		int64(12), "spec", "maxReplicas"))

	events, err := Compare(schema.GroupVersionResource{Resource: "horizontalpodautoscalers"}, d, obj)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "spec.maxReplicas", events[0].Field)
	assert.Equal(t, "8", events[0].Expected)
	assert.Equal(t, "12", events[0].Observed)
}

func TestCompareAutoscalerExistsButDisabled(t *testing.T) {
	d := prodDescriptor()
	obj := renderedObjects(t, d)["horizontalpodautoscalers"]
	d.Topology.Mode = descriptor.SingleMode
	d.Controller.Replicas = 1
	d.Autoscaling = descriptor.Autoscaling{}

	events, err := Compare(schema.GroupVersionResource{Resource: "horizontalpodautoscalers"}, d, obj)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "", events[0].Expected)
}

func TestCompareClaimDrift(t *testing.T) {
	d := prodDescriptor()
	obj := renderedObjects(t, d)["persistentvolumeclaims"]
	assert.NoError(t, unstructured.SetNestedField(obj.Object,
		"gp2", "spec", "storageClassName"))

	events, err := Compare(schema.GroupVersionResource{Resource: "persistentvolumeclaims"}, d, obj)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "spec.storageClassName", events[0].Field)
	assert.Equal(t, "efs-sc", events[0].Expected)
	assert.Equal(t, "gp2", events[0].Observed)
}

func TestCompareCascDrift(t *testing.T) {
	d := prodDescriptor()
	obj := renderedObjects(t, d)["configmaps"]
	assert.NoError(t, unstructured.SetNestedField(obj.Object,
		"jenkins:\n  numExecutors: 5\n", "data", manifests.CascKey))

	events, err := Compare(schema.GroupVersionResource{Resource: "configmaps"}, d, obj)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "data.jenkins.yaml", events[0].Field)
}

func TestCompareIgnoresForeignConfigMaps(t *testing.T) {
	d := prodDescriptor()
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "kube-root-ca.crt",
			"namespace": "jenkins",
		},
	}}
	events, err := Compare(schema.GroupVersionResource{Resource: "configmaps"}, d, obj)
	assert.NoError(t, err)
	assert.Empty(t, events)
}
