package manifests

import (
	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

// renderValues produces the values file for the upstream Jenkins Helm
// chart. The chart owns the controller workload itself, so replicas,
// image and persistence all flow through here instead of a rendered
// StatefulSet manifest.
func renderValues(d *descriptor.Descriptor) ([]byte, error) {
	claim := d.Storage.ExistingClaim
	if claim == "" {
		claim = HomeClaimName
	}
	return renderAsset("values", map[string]interface{}{
		"ImageRepo":      d.Controller.Image.Repository,
		"ImageTag":       d.Controller.Image.Tag,
		"Replicas":       d.Controller.Replicas,
		"NumExecutors":   d.Controller.NumExecutors,
		"AdminSecret":    d.Controller.AdminSecret,
		"Host":           d.Ingress.Host,
		"RequestsCPU":    d.Controller.Resources.Requests.CPU,
		"RequestsMemory": d.Controller.Resources.Requests.Memory,
		"LimitsCPU":      d.Controller.Resources.Limits.CPU,
		"LimitsMemory":   d.Controller.Resources.Limits.Memory,
		"CascConfigMap":  CascConfigMapName,
		"Claim":          claim,
		"StorageClass":   d.Storage.StorageClass,
		"AccessMode":     d.Storage.AccessMode,
		"Capacity":       d.Storage.Capacity,
	})
}
