/*
Package streamrec records structured numeric data from a running experiment
into a single compressed file, one table per data source, in real time.

We implement:

1. Tables, append-only sequences of fixed-layout records described by a Go
struct (or an explicit Schema).

2. Arrays, append-only sequences of fixed-shape slices of a single element type
(a scalar or a fixed-size Go array).

3. Message tables, `{time, msg}` annotations kept next to a data table. The
time column is the row count of the paired table when the message was written.

4. Attributes, named msgpack values attached to a table (units, calibration,
configuration snapshots).

# Technical Details

**Buckets.**
The file is a Bolt database. Every node (table, array, message table) is a root
bucket named after the node. A node bucket holds a `_state` document and two
nested buckets, `data` (row chunks) and `attrs` (attributes).

**Message tables**
A message table is named after its data table plus the `_msgs` suffix. On
reopen, names are classified by that suffix alone; no other metadata is needed
to rebuild the recorder's bookkeeping.

**Node state**
`_state` is msgpack of the node kind, schema, filter settings, row count and
per-chunk row capacity.

## Binary encoding

**Rows** are packed little-endian, fields in declaration order, no padding.
Fixed strings are NUL-padded.

**Chunk keys** are big-endian uint64 chunk ordinals, so chunks sort in order.

**Chunk value**:
1. Row count (uvarint).
2. Raw size (uvarint).
3. xxhash64 of the raw bytes (8 bytes, big-endian).
4. Payload: raw rows passed through the shuffle filter (if enabled), then the codec.

Only the last chunk of a node can be partial; appends rewrite it in place.
*/
package streamrec
