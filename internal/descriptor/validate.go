package descriptor

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Validate checks the descriptor against the rules the rendered
// manifests must satisfy before anything is handed to the cluster.
// All violations are reported at once.
func (d *Descriptor) Validate() error {
	var errs []string
	errs = append(errs, d.validateTopology()...)
	errs = append(errs, d.validateController()...)
	errs = append(errs, d.validateStorage()...)
	errs = append(errs, d.validateIngress()...)
	errs = append(errs, d.validateAutoscaling()...)
	if len(errs) > 0 {
		return fmt.Errorf("invalid descriptor: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (d *Descriptor) validateTopology() []string {
	var errs []string
	switch d.Topology.Mode {
	case SingleMode:
		if d.Controller.Replicas > 1 {
			errs = append(errs, fmt.Sprintf(
				"topology.mode=single supports exactly one controller replica, got %d, use topology.mode=ha for a multi controller setup",
				d.Controller.Replicas))
		}
		if d.Autoscaling.Enabled {
			errs = append(errs, "autoscaling requires topology.mode=ha, it has no effect on a single controller")
		}
	case HaMode:
		if d.Controller.Replicas < 2 {
			errs = append(errs, fmt.Sprintf(
				"topology.mode=ha requires at least 2 controller replicas, got %d", d.Controller.Replicas))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown topology.mode: %q", d.Topology.Mode))
	}
	return errs
}

func (d *Descriptor) validateController() []string {
	var errs []string
	if d.Controller.Replicas < 1 {
		errs = append(errs, fmt.Sprintf("controller.replicas must be >= 1, got %d", d.Controller.Replicas))
	}
	if d.Controller.NumExecutors < 0 {
		errs = append(errs, "controller.numExecutors must be >= 0")
	}
	for _, q := range []struct {
		field string
		value string
	}{
		{"controller.resources.requests.cpu", d.Controller.Resources.Requests.CPU},
		{"controller.resources.requests.memory", d.Controller.Resources.Requests.Memory},
		{"controller.resources.limits.cpu", d.Controller.Resources.Limits.CPU},
		{"controller.resources.limits.memory", d.Controller.Resources.Limits.Memory},
	} {
		if q.value == "" {
			continue
		}
		if _, err := resource.ParseQuantity(q.value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not a valid quantity", q.field, q.value))
		}
	}
	return errs
}

func (d *Descriptor) validateStorage() []string {
	var errs []string
	if d.Storage.ExistingClaim == "" {
		if d.Storage.EfsFileSystemID == "" {
			errs = append(errs, "storage.efsFileSystemID is required when storage.existingClaim is not set")
		} else if !strings.HasPrefix(d.Storage.EfsFileSystemID, "fs-") {
			errs = append(errs, fmt.Sprintf("storage.efsFileSystemID %q does not look like an EFS filesystem id", d.Storage.EfsFileSystemID))
		}
	}
	if _, err := resource.ParseQuantity(d.Storage.Capacity); err != nil {
		errs = append(errs, fmt.Sprintf("storage.capacity: %q is not a valid quantity", d.Storage.Capacity))
	}
	switch d.Storage.AccessMode {
	case "ReadWriteMany":
	case "ReadWriteOnce":
		if d.Topology.Mode == HaMode {
			errs = append(errs, "topology.mode=ha requires storage.accessMode=ReadWriteMany, the controllers share a single EFS backed home")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported storage.accessMode: %q", d.Storage.AccessMode))
	}
	return errs
}

func (d *Descriptor) validateIngress() []string {
	var errs []string
	if d.Ingress.Host == "" {
		errs = append(errs, "ingress.host is required")
	}
	if !strings.HasPrefix(d.Ingress.Path, "/") {
		errs = append(errs, fmt.Sprintf("ingress.path must start with /, got %q", d.Ingress.Path))
	}
	if d.Ingress.Service.Name == "" {
		errs = append(errs, "ingress.service.name is required")
	}
	if d.Ingress.Service.Port < 1 || d.Ingress.Service.Port > 65535 {
		errs = append(errs, fmt.Sprintf("ingress.service.port must be in 1..65535, got %d", d.Ingress.Service.Port))
	}
	return errs
}

func (d *Descriptor) validateAutoscaling() []string {
	if !d.Autoscaling.Enabled {
		return nil
	}
	var errs []string
	a := d.Autoscaling
	if a.MinReplicas < 1 {
		errs = append(errs, fmt.Sprintf("autoscaling.minReplicas must be >= 1, got %d", a.MinReplicas))
	}
	if a.MinReplicas > a.MaxReplicas {
		errs = append(errs, fmt.Sprintf("autoscaling.minReplicas (%d) must be <= autoscaling.maxReplicas (%d)", a.MinReplicas, a.MaxReplicas))
	}
	if d.Topology.Mode == HaMode && a.MinReplicas != d.Controller.Replicas {
		errs = append(errs, fmt.Sprintf(
			"autoscaling.minReplicas (%d) must match controller.replicas (%d), otherwise the HPA fights the rendered replica count",
			a.MinReplicas, d.Controller.Replicas))
	}
	if a.TargetCPUUtilization < 0 || a.TargetCPUUtilization > 100 {
		errs = append(errs, fmt.Sprintf("autoscaling.targetCPUUtilization must be in 0..100, got %d", a.TargetCPUUtilization))
	}
	if a.TargetMemoryUtilization < 0 || a.TargetMemoryUtilization > 100 {
		errs = append(errs, fmt.Sprintf("autoscaling.targetMemoryUtilization must be in 0..100, got %d", a.TargetMemoryUtilization))
	}
	if a.TargetCPUUtilization == 0 && a.TargetMemoryUtilization == 0 {
		errs = append(errs, "autoscaling is enabled but no utilization target is set")
	}
	return errs
}
