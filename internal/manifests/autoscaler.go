package manifests

import (
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

const (
	// AutoscalerName is the HPA policy scaling the controller statefulset.
	AutoscalerName = "jenkins"
	// ControllerStatefulSet is the workload name the upstream Helm
	// chart gives the controller.
	ControllerStatefulSet = "jenkins"
)

func newAutoscaler(d *descriptor.Descriptor) *autoscalingv2.HorizontalPodAutoscaler {
	minReplicas := d.Autoscaling.MinReplicas
	hpa := &autoscalingv2.HorizontalPodAutoscaler{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "autoscaling/v2",
			Kind:       "HorizontalPodAutoscaler",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      AutoscalerName,
			Namespace: d.Namespace,
			Labels:    commonLabels(),
		},
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
				APIVersion: "apps/v1",
				Kind:       "StatefulSet",
				Name:       ControllerStatefulSet,
			},
			MinReplicas: &minReplicas,
			MaxReplicas: d.Autoscaling.MaxReplicas,
		},
	}
	if d.Autoscaling.TargetCPUUtilization > 0 {
		hpa.Spec.Metrics = append(hpa.Spec.Metrics,
			utilizationMetric(corev1.ResourceCPU, d.Autoscaling.TargetCPUUtilization))
	}
	if d.Autoscaling.TargetMemoryUtilization > 0 {
		hpa.Spec.Metrics = append(hpa.Spec.Metrics,
			utilizationMetric(corev1.ResourceMemory, d.Autoscaling.TargetMemoryUtilization))
	}
	return hpa
}

func utilizationMetric(name corev1.ResourceName, target int32) autoscalingv2.MetricSpec {
	return autoscalingv2.MetricSpec{
		Type: autoscalingv2.ResourceMetricSourceType,
		Resource: &autoscalingv2.ResourceMetricSource{
			Name: name,
			Target: autoscalingv2.MetricTarget{
				Type:               autoscalingv2.UtilizationMetricType,
				AverageUtilization: &target,
			},
		},
	}
}
