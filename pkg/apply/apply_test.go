package apply

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

type stubRevisions struct {
	prev      *models.Revision
	created   *models.Revision
	records   []models.ResourceRecord
	failedMsg string
}

func (s *stubRevisions) Create(descriptorYaml, checksum string) (*models.Revision, error) {
	s.created = &models.Revision{
		ID:             7,
		DescriptorYAML: descriptorYaml,
		Checksum:       checksum,
		Status:         models.RevisionPending,
	}
	return s.created, nil
}

func (s *stubRevisions) MarkApplied(revision *models.Revision, records []models.ResourceRecord) error {
	revision.Status = models.RevisionApplied
	s.records = records
	return nil
}

func (s *stubRevisions) MarkFailed(revision *models.Revision, message string) error {
	revision.Status = models.RevisionFailed
	s.failedMsg = message
	return nil
}

func (s *stubRevisions) LatestApplied() (*models.Revision, error) {
	return s.prev, nil
}

type stubDrift struct {
	cleared []uint
}

func (s *stubDrift) Clear(revisionID uint) error {
	s.cleared = append(s.cleared, revisionID)
	return nil
}

// echoPatches answers every apply patch with the patched object itself
// and fails the resource named by failOn, keeping the test independent
// of the fake tracker's server side apply support.
func echoPatches(failOn string) (k8stesting.ReactionFunc, *[]string) {
	resources := &[]string{}
	fn := func(action k8stesting.Action) (bool, runtime.Object, error) {
		patch := action.(k8stesting.PatchAction)
		*resources = append(*resources, patch.GetResource().Resource)
		if patch.GetResource().Resource == failOn {
			return true, nil, errors.New("admission denied")
		}
		obj := &unstructured.Unstructured{}
		if err := json.Unmarshal(patch.GetPatch(), obj); err != nil {
			return true, nil, err
		}
		return true, obj, nil
	}
	return fn, resources
}

var hpaGVR = schema.GroupVersionResource{
	Group: "autoscaling", Version: "v2", Resource: "horizontalpodautoscalers",
}

func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	assert.NoError(t, corev1.AddToScheme(scheme))
	assert.NoError(t, networkingv1.AddToScheme(scheme))
	assert.NoError(t, autoscalingv2.AddToScheme(scheme))
	return scheme
}

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

func toUnstructured(t *testing.T, obj runtime.Object) *unstructured.Unstructured {
	t.Helper()
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	assert.NoError(t, err)
	return &unstructured.Unstructured{Object: content}
}

func renderedHpa(t *testing.T) *unstructured.Unstructured {
	t.Helper()
	bundle, err := manifests.Render(prodDescriptor())
	assert.NoError(t, err)
	for _, item := range bundle.Items {
		if item.GVR == hpaGVR {
			return toUnstructured(t, item.Object)
		}
	}
	t.Fatal("bundle does not contain an HPA")
	return nil
}

func TestApplyRecordsRevision(t *testing.T) {
	d := prodDescriptor()
	bundle, err := manifests.Render(d)
	assert.NoError(t, err)

	dc := fake.NewSimpleDynamicClient(newScheme(t))
	reactor, applied := echoPatches("")
	dc.PrependReactor("patch", "*", reactor)
	revisions := &stubRevisions{prev: &models.Revision{ID: 3, Checksum: "stale"}}
	drift := &stubDrift{}
	applier := NewApplier(dc, revisions, drift, zap.NewNop())

	revision, err := applier.Apply(context.Background(), d, bundle, false)
	assert.NoError(t, err)
	assert.Equal(t, models.RevisionApplied, revision.Status)
	assert.Len(t, revisions.records, len(bundle.Items))
	// the replaced revision's drift history is dropped
	assert.Equal(t, []uint{3}, drift.cleared)
	assert.Equal(t, []string{
		"persistentvolumes",
		"persistentvolumeclaims",
		"configmaps",
		"ingresses",
		"horizontalpodautoscalers",
	}, *applied)
}

func TestApplyFailureStopsAndMarksFailed(t *testing.T) {
	d := prodDescriptor()
	bundle, err := manifests.Render(d)
	assert.NoError(t, err)

	dc := fake.NewSimpleDynamicClient(newScheme(t))
	reactor, applied := echoPatches("ingresses")
	dc.PrependReactor("patch", "*", reactor)
	revisions := &stubRevisions{}
	drift := &stubDrift{}
	applier := NewApplier(dc, revisions, drift, zap.NewNop())

	_, err = applier.Apply(context.Background(), d, bundle, false)
	assert.Error(t, err)
	assert.Equal(t, models.RevisionFailed, revisions.created.Status)
	assert.Contains(t, revisions.failedMsg, "Ingress")
	// nothing after the failed ingress is attempted, objects applied
	// before it stay on the cluster
	assert.Equal(t, "ingresses", (*applied)[len(*applied)-1])
	assert.NotContains(t, *applied, "horizontalpodautoscalers")
	assert.Empty(t, drift.cleared)
}

func TestPruneDeletesOrphans(t *testing.T) {
	hpa := renderedHpa(t)
	dc := fake.NewSimpleDynamicClient(newScheme(t), hpa)
	applier := NewApplier(dc, nil, nil, zap.NewNop())

	prev := []models.ResourceRecord{
		{ResourceID: "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler"},
		{ResourceID: "jenkins_jenkins_networking.k8s.io_Ingress"},
	}
	next := []models.ResourceRecord{
		{ResourceID: "jenkins_jenkins_networking.k8s.io_Ingress"},
	}
	assert.NoError(t, applier.Prune(context.Background(), prev, next))

	_, err := dc.Resource(hpaGVR).Namespace("jenkins").
		Get(context.Background(), "jenkins", metav1.GetOptions{})
	assert.Error(t, err)
}

func TestPruneLeavesUnmanagedObjects(t *testing.T) {
	hpa := renderedHpa(t)
	// somebody took ownership away from the tool
	hpa.SetLabels(map[string]string{"app.kubernetes.io/managed-by": "Helm"})
	dc := fake.NewSimpleDynamicClient(newScheme(t), hpa)
	applier := NewApplier(dc, nil, nil, zap.NewNop())

	prev := []models.ResourceRecord{
		{ResourceID: "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler"},
	}
	assert.NoError(t, applier.Prune(context.Background(), prev, nil))

	_, err := dc.Resource(hpaGVR).Namespace("jenkins").
		Get(context.Background(), "jenkins", metav1.GetOptions{})
	assert.NoError(t, err)
}

func TestPruneToleratesMissingObjects(t *testing.T) {
	dc := fake.NewSimpleDynamicClient(newScheme(t))
	applier := NewApplier(dc, nil, nil, zap.NewNop())

	prev := []models.ResourceRecord{
		{ResourceID: "jenkins_jenkins_autoscaling_HorizontalPodAutoscaler"},
	}
	assert.NoError(t, applier.Prune(context.Background(), prev, nil))
}

func TestPruneRejectsMalformedRecords(t *testing.T) {
	dc := fake.NewSimpleDynamicClient(newScheme(t))
	applier := NewApplier(dc, nil, nil, zap.NewNop())

	prev := []models.ResourceRecord{{ResourceID: "not-an-id"}}
	assert.Error(t, applier.Prune(context.Background(), prev, nil))
}

func TestParseResourceID(t *testing.T) {
	namespace, name, group, kind, err := parseResourceID("jenkins_jenkins_networking.k8s.io_Ingress")
	assert.NoError(t, err)
	assert.Equal(t, "jenkins", namespace)
	assert.Equal(t, "jenkins", name)
	assert.Equal(t, "networking.k8s.io", group)
	assert.Equal(t, "Ingress", kind)

	// cluster scoped objects carry an empty namespace segment
	namespace, name, group, kind, err = parseResourceID("_jenkins-home-pv__PersistentVolume")
	assert.NoError(t, err)
	assert.Equal(t, "", namespace)
	assert.Equal(t, "jenkins-home-pv", name)
	assert.Equal(t, "", group)
	assert.Equal(t, "PersistentVolume", kind)
}
