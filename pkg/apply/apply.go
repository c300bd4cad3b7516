package apply

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

// NewClusterClient builds a dynamic client from the ambient
// kubeconfig, in cluster config wins when both are present.
func NewClusterClient() (dynamic.Interface, error) {
	rc, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	return dynamic.NewForConfig(rc)
}

// RevisionStore is the slice of the revision model service the
// applier drives.
type RevisionStore interface {
	Create(descriptorYaml, checksum string) (*models.Revision, error)
	MarkApplied(revision *models.Revision, records []models.ResourceRecord) error
	MarkFailed(revision *models.Revision, message string) error
	LatestApplied() (*models.Revision, error)
}

// DriftStore drops drift history once its revision is replaced.
type DriftStore interface {
	Clear(revisionID uint) error
}

type Applier struct {
	dc        dynamic.Interface
	revisions RevisionStore
	drift     DriftStore
	logger    *zap.Logger
}

func NewApplier(dc dynamic.Interface, revisions RevisionStore, drift DriftStore, logger *zap.Logger) *Applier {
	return &Applier{
		dc:        dc,
		revisions: revisions,
		drift:     drift,
		logger:    logger,
	}
}

// Apply server side applies the bundle in order and records the
// outcome as a revision. A failure marks the revision failed and
// stops, objects applied up to that point stay on the cluster.
func (a *Applier) Apply(ctx context.Context, d *descriptor.Descriptor, bundle *manifests.Bundle, prune bool) (*models.Revision, error) {
	descriptorYaml, err := yaml.Marshal(d)
	if err != nil {
		return nil, err
	}
	checksum, err := bundle.Checksum()
	if err != nil {
		return nil, err
	}
	prev, err := a.revisions.LatestApplied()
	if err != nil {
		return nil, err
	}
	revision, err := a.revisions.Create(string(descriptorYaml), checksum)
	if err != nil {
		return nil, err
	}
	var records []models.ResourceRecord
	for _, item := range bundle.Items {
		record, err := a.applyItem(ctx, item)
		if err != nil {
			if markErr := a.revisions.MarkFailed(revision, err.Error()); markErr != nil {
				a.logger.Error("failed to mark revision failed", zap.Error(markErr))
			}
			return nil, err
		}
		records = append(records, *record)
	}
	if err := a.revisions.MarkApplied(revision, records); err != nil {
		return nil, err
	}
	a.logger.Info("revision applied",
		zap.Uint("id", revision.ID),
		zap.Int("resources", len(records)))
	if prev != nil {
		// drift recorded against the replaced revision no longer holds
		if err := a.drift.Clear(prev.ID); err != nil {
			a.logger.Error("failed to clear drift history", zap.Error(err))
		}
	}
	if prune && prev != nil {
		if err := a.Prune(ctx, prev.Resources, records); err != nil {
			return revision, err
		}
	}
	return revision, nil
}

func (a *Applier) applyItem(ctx context.Context, item manifests.Item) (*models.ResourceRecord, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(item.Object)
	if err != nil {
		return nil, err
	}
	obj := &unstructured.Unstructured{Object: content}
	opts := metav1.ApplyOptions{FieldManager: manifests.FieldManager, Force: true}
	var ri dynamic.ResourceInterface = a.dc.Resource(item.GVR)
	if obj.GetNamespace() != "" {
		ri = a.dc.Resource(item.GVR).Namespace(obj.GetNamespace())
	}
	applied, err := ri.Apply(ctx, obj.GetName(), obj, opts)
	if err != nil {
		return nil, fmt.Errorf("apply %s %s: %w", obj.GetKind(), obj.GetName(), err)
	}
	a.logger.Info("applied",
		zap.String("kind", applied.GetKind()),
		zap.String("name", applied.GetName()),
		zap.String("namespace", applied.GetNamespace()))
	return &models.ResourceRecord{
		ResourceID: models.NewResourceID(
			applied.GetNamespace(),
			applied.GetName(),
			item.GVR.Group,
			applied.GetKind(),
		),
		APIVersion: applied.GetAPIVersion(),
	}, nil
}
