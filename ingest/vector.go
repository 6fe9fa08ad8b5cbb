package ingest

// Blend weights for the stored chunk vector. Content dominates; the document
// vector anchors the representation to document identity.
const (
	docVectorWeight     = 0.1
	contentVectorWeight = 0.9
)

// BlendVectors combines a document-name vector and a chunk-content vector
// into the stored representation: 0.1*doc + 0.9*content element-wise.
// Returns a new vector of the shorter input's length.
func BlendVectors(docVec, contentVec []float32) []float32 {
	n := len(contentVec)
	if len(docVec) < n {
		n = len(docVec)
	}

	blended := make([]float32, n)
	for i := 0; i < n; i++ {
		blended[i] = docVectorWeight*docVec[i] + contentVectorWeight*contentVec[i]
	}
	return blended
}
