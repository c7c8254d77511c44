//go:build windows

package webgpu

// WGSL compute shaders for the seqconv kernels.
// Using string constants instead of embed for simplicity.
//
// Every shader runs one invocation per output element. Large outputs are
// dispatched on a 2-D grid of workgroups, so the flat index is rebuilt from
// global_invocation_id and num_workgroups.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// maxWorkgroupsPerDim is the WebGPU default limit on dispatch size per axis.
const maxWorkgroupsPerDim = 65535

// convolveSequenceShader computes the sequence convolution.
// codes holds one symbol code per u32.
const convolveSequenceShader = `
@group(0) @binding(0) var<storage, read> codes: array<u32>;
@group(0) @binding(1) var<storage, read> filters: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    filter_width: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

var<private> WEIGHTS: array<vec4<f32>, 7> = array<vec4<f32>, 7>(
    vec4<f32>(1.0, 0.0, 0.0, 0.0),
    vec4<f32>(0.0, 1.0, 0.0, 0.0),
    vec4<f32>(0.0, 0.0, 1.0, 0.0),
    vec4<f32>(0.0, 0.0, 0.0, 1.0),
    vec4<f32>(0.5, 0.0, 0.5, 0.0),
    vec4<f32>(0.0, 0.5, 0.0, 0.5),
    vec4<f32>(0.25, 0.25, 0.25, 0.25),
);

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let f = idx % params.n_filters;
    let j = (idx / params.n_filters) % params.out_width;
    let n = idx / (params.n_filters * params.out_width);

    var sum = bias[f];
    for (var k = 0u; k < params.filter_width; k = k + 1u) {
        let code = codes[n * params.width + j + k];
        let w = (f * params.filter_width + k) * 4u;
        let fv = vec4<f32>(filters[w], filters[w + 1u], filters[w + 2u], filters[w + 3u]);
        sum = sum + dot(fv, WEIGHTS[code]);
    }
    result[idx] = sum;
}
`

// conv1dShader computes the dense valid-mode 1-D cross-correlation.
const conv1dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> filters: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    filter_width: u32,
    channels: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let f = idx % params.n_filters;
    let p = (idx / params.n_filters) % params.out_width;
    let n = idx / (params.n_filters * params.out_width);

    let span = params.filter_width * params.channels;
    let x0 = (n * params.width + p) * params.channels;
    let w0 = f * span;
    var sum = bias[f];
    for (var i = 0u; i < span; i = i + 1u) {
        sum = sum + filters[w0 + i] * input[x0 + i];
    }
    result[idx] = sum;
}
`

// conv1dGradInputShader computes the input gradient of conv1d as a gather:
// each input position sums the filter taps that read it.
const conv1dGradInputShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> filters: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    filter_width: u32,
    channels: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let c = idx % params.channels;
    let p = (idx / params.channels) % params.width;
    let n = idx / (params.channels * params.width);

    var sum = 0.0;
    for (var k = 0u; k < params.filter_width; k = k + 1u) {
        if (k > p || p - k >= params.out_width) {
            continue;
        }
        let q = p - k;
        let g0 = (n * params.out_width + q) * params.n_filters;
        for (var f = 0u; f < params.n_filters; f = f + 1u) {
            sum = sum + filters[(f * params.filter_width + k) * params.channels + c] * grad[g0 + f];
        }
    }
    result[idx] = sum;
}
`

// maxPoolShader selects window maxima. The scan starts at offset 0 and only
// a strictly greater value replaces the current maximum.
const maxPoolShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
@group(0) @binding(2) var<storage, read_write> argmax: array<i32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    pool_size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let f = idx % params.n_filters;
    let q = (idx / params.n_filters) % params.out_width;
    let n = idx / (params.n_filters * params.out_width);

    let start = n * params.width + q * params.pool_size;
    var best = input[start * params.n_filters + f];
    var arg = 0u;
    for (var i = 1u; i < params.pool_size; i = i + 1u) {
        let v = input[(start + i) * params.n_filters + f];
        if (v > best) {
            best = v;
            arg = i;
        }
    }
    result[idx] = best;
    argmax[idx] = i32(arg);
}
`

// maxPoolGradShader routes gradients to the argmax positions. Each input
// position reads the argmax of its window; no two invocations write the
// same element.
const maxPoolGradShader = `
@group(0) @binding(0) var<storage, read> argmax: array<i32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    pool_size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let f = idx % params.n_filters;
    let p = (idx / params.n_filters) % params.width;
    let n = idx / (params.n_filters * params.width);

    let o = (n * params.out_width + p / params.pool_size) * params.n_filters + f;
    if (u32(argmax[o]) == p % params.pool_size) {
        result[idx] = grad[o];
    } else {
        result[idx] = 0.0;
    }
}
`

// sumPoolShader sums each window sequentially from offset 0.
const sumPoolShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    pool_size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let f = idx % params.n_filters;
    let q = (idx / params.n_filters) % params.out_width;
    let n = idx / (params.n_filters * params.out_width);

    let start = n * params.width + q * params.pool_size;
    var sum = 0.0;
    for (var i = 0u; i < params.pool_size; i = i + 1u) {
        sum = sum + input[(start + i) * params.n_filters + f];
    }
    result[idx] = sum;
}
`

// sumPoolGradShader broadcasts each pooled gradient over its window.
const sumPoolGradShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    width: u32,
    out_width: u32,
    n_filters: u32,
    pool_size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }
    let f = idx % params.n_filters;
    let p = (idx / params.n_filters) % params.width;
    let n = idx / (params.n_filters * params.width);

    result[idx] = grad[(n * params.out_width + p / params.pool_size) * params.n_filters + f];
}
`
