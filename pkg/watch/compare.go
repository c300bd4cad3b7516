package watch

import (
	"fmt"

	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
	"github.com/pramodksahoo/jenkins-production/internal/manifests"
	"github.com/pramodksahoo/jenkins-production/internal/models"
)

// Compare checks one live object against the desired descriptor and
// returns a drift event per mismatching field.
func Compare(gvr schema.GroupVersionResource, d *descriptor.Descriptor, obj *unstructured.Unstructured) ([]models.DriftEvent, error) {
	switch gvr.Resource {
	case "ingresses":
		return compareIngress(d, obj)
	case "horizontalpodautoscalers":
		return compareAutoscaler(d, obj)
	case "persistentvolumeclaims":
		return compareClaim(d, obj)
	case "configmaps":
		return compareCasc(d, obj)
	}
	return nil, nil
}

func compareIngress(d *descriptor.Descriptor, obj *unstructured.Unstructured) ([]models.DriftEvent, error) {
	ingress := &networkingv1.Ingress{}
	if err := runtime.
		DefaultUnstructuredConverter.
		FromUnstructured(obj.Object, ingress); err != nil {
		return nil, err
	}
	resourceID := resourceID(obj, "networking.k8s.io")
	var events []models.DriftEvent
	if len(ingress.Spec.Rules) == 0 {
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "spec.rules",
			Expected:   d.Ingress.Host,
			Observed:   "",
		})
		return events, nil
	}
	if host := ingress.Spec.Rules[0].Host; host != d.Ingress.Host {
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "spec.rules[0].host",
			Expected:   d.Ingress.Host,
			Observed:   host,
		})
	}
	if d.Ingress.TLSSecret != "" {
		if len(ingress.Spec.TLS) == 0 {
			events = append(events, models.DriftEvent{
				ResourceID: resourceID,
				Field:      "spec.tls",
				Expected:   d.Ingress.TLSSecret,
				Observed:   "",
			})
		} else {
			if secret := ingress.Spec.TLS[0].SecretName; secret != d.Ingress.TLSSecret {
				events = append(events, models.DriftEvent{
					ResourceID: resourceID,
					Field:      "spec.tls[0].secretName",
					Expected:   d.Ingress.TLSSecret,
					Observed:   secret,
				})
			}
			// the TLS host set must mirror the rule host
			if len(ingress.Spec.TLS[0].Hosts) != 1 || ingress.Spec.TLS[0].Hosts[0] != d.Ingress.Host {
				events = append(events, models.DriftEvent{
					ResourceID: resourceID,
					Field:      "spec.tls[0].hosts",
					Expected:   d.Ingress.Host,
					Observed:   fmt.Sprintf("%v", ingress.Spec.TLS[0].Hosts),
				})
			}
		}
	}
	return events, nil
}

func compareAutoscaler(d *descriptor.Descriptor, obj *unstructured.Unstructured) ([]models.DriftEvent, error) {
	hpa := &autoscalingv2.HorizontalPodAutoscaler{}
	if err := runtime.
		DefaultUnstructuredConverter.
		FromUnstructured(obj.Object, hpa); err != nil {
		return nil, err
	}
	resourceID := resourceID(obj, "autoscaling")
	var events []models.DriftEvent
	if !d.Autoscaling.Enabled {
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "metadata.name",
			Expected:   "",
			Observed:   hpa.Name,
		})
		return events, nil
	}
	if hpa.Spec.MinReplicas == nil || *hpa.Spec.MinReplicas != d.Autoscaling.MinReplicas {
		observed := "<nil>"
		if hpa.Spec.MinReplicas != nil {
			observed = fmt.Sprintf("%d", *hpa.Spec.MinReplicas)
		}
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "spec.minReplicas",
			Expected:   fmt.Sprintf("%d", d.Autoscaling.MinReplicas),
			Observed:   observed,
		})
	}
	if hpa.Spec.MaxReplicas != d.Autoscaling.MaxReplicas {
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "spec.maxReplicas",
			Expected:   fmt.Sprintf("%d", d.Autoscaling.MaxReplicas),
			Observed:   fmt.Sprintf("%d", hpa.Spec.MaxReplicas),
		})
	}
	return events, nil
}

func compareClaim(d *descriptor.Descriptor, obj *unstructured.Unstructured) ([]models.DriftEvent, error) {
	claim := &corev1.PersistentVolumeClaim{}
	if err := runtime.
		DefaultUnstructuredConverter.
		FromUnstructured(obj.Object, claim); err != nil {
		return nil, err
	}
	resourceID := resourceID(obj, "")
	var events []models.DriftEvent
	if claim.Spec.StorageClassName == nil || *claim.Spec.StorageClassName != d.Storage.StorageClass {
		observed := "<nil>"
		if claim.Spec.StorageClassName != nil {
			observed = *claim.Spec.StorageClassName
		}
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "spec.storageClassName",
			Expected:   d.Storage.StorageClass,
			Observed:   observed,
		})
	}
	if len(claim.Spec.AccessModes) != 1 || string(claim.Spec.AccessModes[0]) != d.Storage.AccessMode {
		events = append(events, models.DriftEvent{
			ResourceID: resourceID,
			Field:      "spec.accessModes",
			Expected:   d.Storage.AccessMode,
			Observed:   fmt.Sprintf("%v", claim.Spec.AccessModes),
		})
	}
	return events, nil
}

func compareCasc(d *descriptor.Descriptor, obj *unstructured.Unstructured) ([]models.DriftEvent, error) {
	if obj.GetName() != manifests.CascConfigMapName {
		return nil, nil
	}
	cm := &corev1.ConfigMap{}
	if err := runtime.
		DefaultUnstructuredConverter.
		FromUnstructured(obj.Object, cm); err != nil {
		return nil, err
	}
	expected, err := manifests.CascContent(d)
	if err != nil {
		return nil, err
	}
	if cm.Data[manifests.CascKey] == expected {
		return nil, nil
	}
	return []models.DriftEvent{
		{
			ResourceID: resourceID(obj, ""),
			Field:      fmt.Sprintf("data.%s", manifests.CascKey),
			Expected:   expected,
			Observed:   cm.Data[manifests.CascKey],
		},
	}, nil
}

func resourceID(obj *unstructured.Unstructured, group string) string {
	return models.NewResourceID(obj.GetNamespace(), obj.GetName(), group, obj.GetKind())
}
