package manifests

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pramodksahoo/jenkins-production/internal/descriptor"
)

const (
	efsCsiDriver = "efs.csi.aws.com"
	// HomeVolumeName is the cluster scoped PV carrying the shared
	// Jenkins home, there is exactly one per deployment.
	HomeVolumeName = "jenkins-home-pv"
	// HomeClaimName is the claim the Helm chart mounts as JENKINS_HOME.
	HomeClaimName = "jenkins-home"
)

func newPersistentVolume(d *descriptor.Descriptor) *corev1.PersistentVolume {
	capacity := resource.MustParse(d.Storage.Capacity)
	return &corev1.PersistentVolume{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "PersistentVolume",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   HomeVolumeName,
			Labels: commonLabels(),
		},
		Spec: corev1.PersistentVolumeSpec{
			Capacity: corev1.ResourceList{
				corev1.ResourceStorage: capacity,
			},
			AccessModes: []corev1.PersistentVolumeAccessMode{
				corev1.PersistentVolumeAccessMode(d.Storage.AccessMode),
			},
			PersistentVolumeReclaimPolicy: corev1.PersistentVolumeReclaimRetain,
			StorageClassName:              d.Storage.StorageClass,
			PersistentVolumeSource: corev1.PersistentVolumeSource{
				CSI: &corev1.CSIPersistentVolumeSource{
					Driver:       efsCsiDriver,
					VolumeHandle: d.Storage.EfsFileSystemID,
				},
			},
		},
	}
}

func newPersistentVolumeClaim(d *descriptor.Descriptor) *corev1.PersistentVolumeClaim {
	capacity := resource.MustParse(d.Storage.Capacity)
	storageClass := d.Storage.StorageClass
	return &corev1.PersistentVolumeClaim{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "PersistentVolumeClaim",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      HomeClaimName,
			Namespace: d.Namespace,
			Labels:    commonLabels(),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{
				corev1.PersistentVolumeAccessMode(d.Storage.AccessMode),
			},
			StorageClassName: &storageClass,
			VolumeName:       HomeVolumeName,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: capacity,
				},
			},
		},
	}
}
