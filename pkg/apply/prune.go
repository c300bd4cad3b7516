package apply

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"

	"github.com/pramodksahoo/jenkins-production/internal/manifests"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

// Prune deletes objects the previous revision applied and the new one
// no longer renders, e.g. the HPA policy after a switch back to the
// single controller topology. Only objects still labelled as managed
// by this tool are deleted.
func (a *Applier) Prune(ctx context.Context, prev, next []models.ResourceRecord) error {
	for _, orphan := range models.Orphans(prev, next) {
		namespace, name, group, kind, err := parseResourceID(orphan.ResourceID)
		if err != nil {
			return err
		}
		gvr, ok := manifests.GVRForKind(group, kind)
		if !ok {
			a.logger.Warn("skipping orphan with unknown kind",
				zap.String("resource", orphan.ResourceID))
			continue
		}
		var ri dynamic.ResourceInterface = a.dc.Resource(gvr)
		if namespace != "" {
			ri = a.dc.Resource(gvr).Namespace(namespace)
		}
		obj, err := ri.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			a.logger.Warn("orphan already gone",
				zap.String("resource", orphan.ResourceID), zap.Error(err))
			continue
		}
		if obj.GetLabels()[manifests.ManagedByLabel] != manifests.FieldManager {
			a.logger.Warn("orphan no longer managed by this tool, leaving it alone",
				zap.String("resource", orphan.ResourceID))
			continue
		}
		if err := ri.Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
			return fmt.Errorf("prune %s: %w", orphan.ResourceID, err)
		}
		a.logger.Info("pruned", zap.String("resource", orphan.ResourceID))
	}
	return nil
}

func parseResourceID(id string) (namespace, name, group, kind string, err error) {
	parts := strings.SplitN(id, "_", 4)
	if len(parts) != 4 {
		return "", "", "", "", fmt.Errorf("malformed resource id: %q", id)
	}
	return parts[0], parts[1], parts[2], parts[3], nil
}
