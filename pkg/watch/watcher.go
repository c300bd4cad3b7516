package watch

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/tools/cache"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

// Watcher keeps informers on the managed resources and records every
// field that drifts away from the latest applied revision. It never
// mutates the cluster, remediation stays with the operator.
type Watcher struct {
	namespace string
	revisions *models.RevisionModelSvc
	drift     *models.DriftModelSvc
	logger    *zap.Logger
	synced    atomic.Int32
}

func NewWatcher(namespace string, revisions *models.RevisionModelSvc, drift *models.DriftModelSvc, logger *zap.Logger) *Watcher {
	return &Watcher{
		namespace: namespace,
		revisions: revisions,
		drift:     drift,
		logger:    logger,
	}
}

// Synced reports whether every informer finished its initial list.
func (w *Watcher) Synced() bool {
	return int(w.synced.Load()) == len(manifests.WatchedGVRs())
}

func (w *Watcher) Start() {
	for _, gvr := range manifests.WatchedGVRs() {
		go w.runInformer(gvr)
	}
}

func (w *Watcher) runInformer(gvr schema.GroupVersionResource) {
	l := w.logger.With(zap.String("resource", gvr.Resource))
	var informerStartError error
	for {
		if informerStartError != nil {
			l.Error("informer start error", zap.Error(informerStartError))
			informerStartError = nil
			l.Info("restarting informer after error")
			time.Sleep(3 * time.Second)
		}
		rc, err := config.GetConfig()
		if err != nil {
			informerStartError = err
			continue
		}
		dc, err := dynamic.NewForConfig(rc)
		if err != nil {
			informerStartError = err
			continue
		}
		genericInformer := dynamicinformer.NewFilteredDynamicInformer(
			dc, gvr, w.namespace, 1*time.Hour, nil,
			func(options *metav1.ListOptions) {
				options.LabelSelector = fmt.Sprintf("%s=%s",
					manifests.ManagedByLabel, manifests.FieldManager)
			},
		)
		_, err = genericInformer.Informer().AddEventHandler(cache.ResourceEventHandlerFuncs{
			AddFunc: func(obj interface{}) {
				w.check(gvr, obj.(*unstructured.Unstructured))
			},
			UpdateFunc: func(oldObj, newObj interface{}) {
				w.check(gvr, newObj.(*unstructured.Unstructured))
			},
			DeleteFunc: func(obj interface{}) {
				deleted, ok := obj.(*unstructured.Unstructured)
				if !ok {
					return
				}
				l.Warn("managed object deleted from cluster",
					zap.String("name", deleted.GetName()),
					zap.String("namespace", deleted.GetNamespace()))
			},
		})
		if err != nil {
			informerStartError = err
			continue
		}
		stopCh := make(chan struct{})
		go func() {
			cache.WaitForCacheSync(stopCh, genericInformer.Informer().HasSynced)
			w.synced.Add(1)
		}()
		genericInformer.Informer().Run(stopCh)
		w.synced.Add(-1)
	}
}

func (w *Watcher) check(gvr schema.GroupVersionResource, obj *unstructured.Unstructured) {
	revision, err := w.revisions.LatestApplied()
	if err != nil {
		w.logger.Error("failed to load latest applied revision", zap.Error(err))
		return
	}
	if revision == nil {
		return
	}
	desired := &descriptor.Descriptor{}
	if err := yaml.Unmarshal([]byte(revision.DescriptorYAML), desired); err != nil {
		w.logger.Error("failed to decode revision descriptor", zap.Error(err))
		return
	}
	events, err := Compare(gvr, desired, obj)
	if err != nil {
		w.logger.With(
			zap.String("name", obj.GetName()),
			zap.String("namespace", obj.GetNamespace()),
		).Error("error comparing object", zap.Error(err))
		return
	}
	for i := range events {
		events[i].RevisionID = revision.ID
		if err := w.drift.Record(&events[i]); err != nil {
			w.logger.Error("failed to record drift event", zap.Error(err))
		}
	}
}
