package cpu

import (
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	// Offset applied along the surface normal to avoid self intersections.
	surfaceEpsilon float32 = 1e-3

	groundAlbedo   float32 = 0.8
	groundSpecular float32 = 0.04

	// Floats read from each packed sphere record.
	sphereFloats = 10
)

var noHit = math32.Inf(1)

type ray struct {
	origin types.Vec3
	dir    types.Vec3
	energy types.Vec3
}

type rayHit struct {
	dist     float32
	position types.Vec3
	normal   types.Vec3
	albedo   types.Vec3
	specular types.Vec3
}

// An immutable snapshot of the kernel arguments shared by all tile workers.
type kernel struct {
	result      *image
	width       uint32
	height      uint32
	spheres     []float32
	sphereCount int
	stride      int

	cameraToWorld mgl32.Mat4
	invProjection mgl32.Mat4
	pixelOffset   types.Vec2

	lightDir       types.Vec3
	lightIntensity float32

	sky         []float32
	skyW, skyH  int
	reflections uint32
}

func (d *Device) prepareKernel(args *tracer.KernelArgs) (*kernel, error) {
	if args == nil || args.Result == nil {
		return nil, errors.Wrap(ErrInvalidArgs, "missing result image")
	}
	result, ok := args.Result.(*image)
	if !ok || result.device != d {
		return nil, errors.Wrapf(ErrForeignResource, "result image %s", args.Result.Name())
	}
	if result.texels == nil {
		return nil, errors.Wrapf(ErrInvalidArgs, "result image %s has been released", result.name)
	}

	k := &kernel{
		result:         result,
		width:          result.width,
		height:         result.height,
		cameraToWorld:  args.CameraToWorld,
		invProjection:  args.CameraInverseProjection,
		pixelOffset:    args.PixelOffset,
		lightDir:       args.DirectionalLight.Vec3(),
		lightIntensity: args.DirectionalLight[3],
		reflections:    args.ReflectionsCount,
	}

	if args.SphereCount > 0 {
		buf, ok := args.Spheres.(*buffer)
		if !ok || buf.device != d {
			return nil, errors.Wrap(ErrForeignResource, "sphere buffer")
		}
		stride := int(args.SphereStride) / 4
		if stride < sphereFloats {
			return nil, errors.Wrapf(ErrInvalidArgs, "sphere stride %d is smaller than %d bytes", args.SphereStride, sphereFloats*4)
		}
		if need := int(args.SphereCount) * stride; need > len(buf.data) {
			return nil, errors.Wrapf(ErrInvalidArgs, "sphere buffer %s holds %d floats; %d spheres need %d", buf.name, len(buf.data), args.SphereCount, need)
		}
		k.spheres, k.sphereCount, k.stride = buf.data, int(args.SphereCount), stride
	}

	if args.SkyboxTexture != nil {
		sky, ok := args.SkyboxTexture.(*image)
		if !ok || sky.device != d {
			return nil, errors.Wrapf(ErrForeignResource, "skybox texture %s", args.SkyboxTexture.Name())
		}
		k.sky, k.skyW, k.skyH = sky.texels, int(sky.width), int(sky.height)
	}

	return k, nil
}

func (k *kernel) traceTile(gx, gy uint32) {
	x0, y0 := gx*tracer.TileSize, gy*tracer.TileSize
	for y := y0; y < y0+tracer.TileSize && y < k.height; y++ {
		for x := x0; x < x0+tracer.TileSize && x < k.width; x++ {
			c := k.tracePixel(x, y)
			offset := (int(y)*int(k.width) + int(x)) * 4
			k.result.texels[offset+0] = c[0]
			k.result.texels[offset+1] = c[1]
			k.result.texels[offset+2] = c[2]
			k.result.texels[offset+3] = 1
		}
	}
}

func (k *kernel) tracePixel(x, y uint32) types.Vec3 {
	u := (float32(x)+k.pixelOffset[0])/float32(k.width)*2 - 1
	v := 1 - (float32(y)+k.pixelOffset[1])/float32(k.height)*2
	r := k.cameraRay(u, v)

	var result types.Vec3
	for bounce := uint32(0); bounce <= k.reflections; bounce++ {
		hit := k.trace(&r)
		energy := r.energy
		result = result.Add(energy.MulVec(k.shade(&r, &hit)))
		if !r.energy.Any() {
			break
		}
	}

	return result
}

func (k *kernel) cameraRay(u, v float32) ray {
	origin := k.cameraToWorld.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	dir := k.invProjection.Mul4x1(mgl32.Vec4{u, v, 0, 1}).Vec3()
	dir = k.cameraToWorld.Mul4x1(dir.Vec4(0)).Vec3().Normalize()

	return ray{
		origin: types.Vec3(origin),
		dir:    types.Vec3(dir),
		energy: types.XYZ(1, 1, 1),
	}
}

func (k *kernel) trace(r *ray) rayHit {
	best := rayHit{dist: noHit}

	// Ground plane at y = 0.
	if r.dir[1] != 0 {
		t := -r.origin[1] / r.dir[1]
		if t > 0 && t < best.dist {
			best.dist = t
			best.position = r.origin.Add(r.dir.Mul(t))
			best.normal = types.XYZ(0, 1, 0)
			best.albedo = types.XYZ(groundAlbedo, groundAlbedo, groundAlbedo)
			best.specular = types.XYZ(groundSpecular, groundSpecular, groundSpecular)
		}
	}

	for index := 0; index < k.sphereCount; index++ {
		rec := k.spheres[index*k.stride : index*k.stride+sphereFloats]
		center := types.XYZ(rec[0], rec[1], rec[2])
		radius := rec[3]

		d := r.origin.Sub(center)
		p1 := -r.dir.Dot(d)
		p2sqr := p1*p1 - d.Dot(d) + radius*radius
		if p2sqr < 0 {
			continue
		}
		p2 := math32.Sqrt(p2sqr)
		t := p1 - p2
		if t <= 0 {
			t = p1 + p2
		}
		if t > 0 && t < best.dist {
			best.dist = t
			best.position = r.origin.Add(r.dir.Mul(t))
			best.normal = best.position.Sub(center).Normalize()
			best.albedo = types.XYZ(rec[4], rec[5], rec[6])
			best.specular = types.XYZ(rec[7], rec[8], rec[9])
		}
	}

	return best
}

// Shade a hit and set up r for the next reflection bounce.
func (k *kernel) shade(r *ray, hit *rayHit) types.Vec3 {
	if hit.dist == noHit {
		r.energy = types.Vec3{}
		return k.sampleSky(r.dir)
	}

	offsetPos := hit.position.Add(hit.normal.Mul(surfaceEpsilon))
	r.origin = offsetPos
	r.dir = r.dir.Reflect(hit.normal)
	r.energy = r.energy.MulVec(hit.specular)

	toLight := k.lightDir.Mul(-1)
	shadowRay := ray{origin: offsetPos, dir: toLight}
	if shadowHit := k.trace(&shadowRay); shadowHit.dist != noHit {
		return types.Vec3{}
	}

	return hit.albedo.Mul(types.Saturate(hit.normal.Dot(toLight)) * k.lightIntensity)
}

// Sample the equirectangular skybox; row 0 holds the zenith.
func (k *kernel) sampleSky(dir types.Vec3) types.Vec3 {
	if k.sky == nil {
		return types.Vec3{}
	}

	u := 0.5 + math32.Atan2(dir[0], -dir[2])/(2*math32.Pi)
	v := math32.Acos(math32.Max(-1, math32.Min(1, dir[1]))) / math32.Pi

	x := int(u*float32(k.skyW)) % k.skyW
	if x < 0 {
		x += k.skyW
	}
	y := int(v * float32(k.skyH))
	if y < 0 {
		y = 0
	} else if y >= k.skyH {
		y = k.skyH - 1
	}

	offset := (y*k.skyW + x) * 4
	return types.XYZ(k.sky[offset], k.sky[offset+1], k.sky[offset+2])
}
