package descriptor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type TopologyMode = string

const (
	// SingleMode runs one controller replica, suitable for small teams
	// and for clusters with a single worker node.
	SingleMode TopologyMode = "single"
	// HaMode runs multiple controller replicas over a shared EFS home
	// and allows the HPA policy to be rendered.
	HaMode TopologyMode = "ha"
)

const (
	DefaultNamespace    = "jenkins"
	DefaultImageRepo    = "jenkins/jenkins"
	DefaultImageTag     = "2.462.3-lts-jdk17"
	DefaultStorageClass = "efs-sc"
	DefaultCapacity     = "20Gi"
	DefaultAccessMode   = "ReadWriteMany"
	DefaultServiceName  = "jenkins"
	DefaultServicePort  = 8080
)

// Descriptor is the desired end state of a production Jenkins
// deployment on EKS. It is the single input for render, apply and watch.
type Descriptor struct {
	Namespace   string      `yaml:"namespace"`
	Topology    Topology    `yaml:"topology"`
	Controller  Controller  `yaml:"controller"`
	Storage     Storage     `yaml:"storage"`
	Ingress     Ingress     `yaml:"ingress"`
	Autoscaling Autoscaling `yaml:"autoscaling"`
}

type Topology struct {
	Mode TopologyMode `yaml:"mode"`
}

type Controller struct {
	Replicas     int32     `yaml:"replicas"`
	Image        Image     `yaml:"image"`
	Resources    Resources `yaml:"resources"`
	AdminSecret  string    `yaml:"adminSecret"`
	NumExecutors int32     `yaml:"numExecutors"`
}

type Image struct {
	Repository string `yaml:"repository"`
	Tag        string `yaml:"tag"`
}

func (i Image) Ref() string {
	return fmt.Sprintf("%s:%s", i.Repository, i.Tag)
}

type Resources struct {
	Requests ResourceList `yaml:"requests"`
	Limits   ResourceList `yaml:"limits"`
}

type ResourceList struct {
	CPU    string `yaml:"cpu"`
	Memory string `yaml:"memory"`
}

type Storage struct {
	EfsFileSystemID string `yaml:"efsFileSystemID"`
	StorageClass    string `yaml:"storageClass"`
	Capacity        string `yaml:"capacity"`
	AccessMode      string `yaml:"accessMode"`
	// ExistingClaim skips PV/PVC rendering and hands the chart
	// a claim provisioned out of band.
	ExistingClaim string `yaml:"existingClaim"`
}

type Ingress struct {
	Host      string  `yaml:"host"`
	Path      string  `yaml:"path"`
	ClassName string  `yaml:"className"`
	TLSSecret string  `yaml:"tlsSecret"`
	Service   Backend `yaml:"service"`
}

type Backend struct {
	Name string `yaml:"name"`
	Port int32  `yaml:"port"`
}

type Autoscaling struct {
	Enabled                 bool  `yaml:"enabled"`
	MinReplicas             int32 `yaml:"minReplicas"`
	MaxReplicas             int32 `yaml:"maxReplicas"`
	TargetCPUUtilization    int32 `yaml:"targetCPUUtilization"`
	TargetMemoryUtilization int32 `yaml:"targetMemoryUtilization"`
}

// Load reads, defaults and validates a descriptor file.
func Load(path string) (*Descriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	d := &Descriptor{}
	if err := yaml.Unmarshal(content, d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	d.Default()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Default fills in the values the guide considers production defaults,
// explicit settings always win.
func (d *Descriptor) Default() {
	if d.Namespace == "" {
		d.Namespace = DefaultNamespace
	}
	if d.Topology.Mode == "" {
		d.Topology.Mode = SingleMode
	}
	if d.Controller.Replicas == 0 {
		if d.Topology.Mode == SingleMode {
			d.Controller.Replicas = 1
		} else {
			d.Controller.Replicas = 2
		}
	}
	if d.Controller.Image.Repository == "" {
		d.Controller.Image.Repository = DefaultImageRepo
	}
	if d.Controller.Image.Tag == "" {
		d.Controller.Image.Tag = DefaultImageTag
	}
	if d.Storage.StorageClass == "" {
		d.Storage.StorageClass = DefaultStorageClass
	}
	if d.Storage.Capacity == "" {
		d.Storage.Capacity = DefaultCapacity
	}
	if d.Storage.AccessMode == "" {
		d.Storage.AccessMode = DefaultAccessMode
	}
	if d.Ingress.Path == "" {
		d.Ingress.Path = "/"
	}
	if d.Ingress.ClassName == "" {
		d.Ingress.ClassName = "nginx"
	}
	if d.Ingress.Service.Name == "" {
		d.Ingress.Service.Name = DefaultServiceName
	}
	if d.Ingress.Service.Port == 0 {
		d.Ingress.Service.Port = DefaultServicePort
	}
}
