package manifests

import (
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

// IngressName is the routing rule in front of the controller service.
const IngressName = "jenkins"

func newIngress(d *descriptor.Descriptor) *networkingv1.Ingress {
	pathType := networkingv1.PathTypePrefix
	className := d.Ingress.ClassName
	ingress := &networkingv1.Ingress{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "networking.k8s.io/v1",
			Kind:       "Ingress",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      IngressName,
			Namespace: d.Namespace,
			Labels:    commonLabels(),
			Annotations: map[string]string{
				// plugin uploads and fingerprint archives go through here
				"nginx.ingress.kubernetes.io/proxy-body-size":    "50m",
				"nginx.ingress.kubernetes.io/proxy-read-timeout": "600",
			},
		},
		Spec: networkingv1.IngressSpec{
			IngressClassName: &className,
			Rules: []networkingv1.IngressRule{
				{
					Host: d.Ingress.Host,
					IngressRuleValue: networkingv1.IngressRuleValue{
						HTTP: &networkingv1.HTTPIngressRuleValue{
							Paths: []networkingv1.HTTPIngressPath{
								{
									Path:     d.Ingress.Path,
									PathType: &pathType,
									Backend: networkingv1.IngressBackend{
										Service: &networkingv1.IngressServiceBackend{
											Name: d.Ingress.Service.Name,
											Port: networkingv1.ServiceBackendPort{
												Number: d.Ingress.Service.Port,
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	if d.Ingress.TLSSecret != "" {
		// the TLS host set and the rule host must stay identical,
		// the watcher flags any drift between the two
		ingress.Spec.TLS = []networkingv1.IngressTLS{
			{
				Hosts:      []string{d.Ingress.Host},
				SecretName: d.Ingress.TLSSecret,
			},
		}
	}
	return ingress
}
