package manifests

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

const (
	// CascConfigMapName carries the configuration-as-code document the
	// chart side loads into the controller.
	CascConfigMapName = "jenkins-casc"
	CascKey           = "jenkins.yaml"
)

// CascContent renders the configuration-as-code document, the drift
// watcher re-renders it to compare against the live config map.
func CascContent(d *descriptor.Descriptor) (string, error) {
	content, err := renderAsset("jcasc", map[string]interface{}{
		"NumExecutors": d.Controller.NumExecutors,
		"Host":         d.Ingress.Host,
		"Path":         d.Ingress.Path,
	})
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func newCascConfigMap(d *descriptor.Descriptor) (*corev1.ConfigMap, error) {
	content, err := CascContent(d)
	if err != nil {
		return nil, err
	}
	labels := commonLabels()
	// the chart's sidecar picks config maps up by this label
	labels["jenkins-jenkins-config"] = "true"
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      CascConfigMapName,
			Namespace: d.Namespace,
			Labels:    labels,
		},
		Data: map[string]string{
			CascKey: content,
		},
	}, nil
}
