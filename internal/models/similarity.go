package models

// SimilarityEdge es una arista src -> dst con su correlación de Pearson
// y la cantidad de usuarios que puntuaron ambos.
type SimilarityEdge struct {
	SrcID       int     `json:"src_id" bson:"srcId"`
	DstID       int     `json:"dst_id" bson:"dstId"`
	Correlation float64 `json:"correlation" bson:"correlation"`
	Common      int     `json:"common" bson:"common"`
}

// NeighborList: aristas de un mismo src ordenadas por correlación desc.
type NeighborList []SimilarityEdge

// Documento en Mongo (una lista de vecinos por anime y generación).
type NeighborDoc struct {
	ID         string           `json:"_id" bson:"_id"`
	Generation string           `json:"generation" bson:"generation"`
	SrcID      int              `json:"srcId" bson:"srcId"`
	Neighbors  []SimilarityEdge `json:"neighbors" bson:"neighbors"`
	UpdatedAt  string           `json:"updatedAt" bson:"updatedAt"`
}

// Estado de una generación persistida en Mongo.
type NeighborGenerationDoc struct {
	ID              string `json:"_id" bson:"_id"`
	TopK            int    `json:"topK" bson:"topK"`
	MinPeriods      int    `json:"minPeriods" bson:"minPeriods"`
	PopularityFloor int    `json:"popularityFloor" bson:"popularityFloor"`
	Status          string `json:"status" bson:"status"`
	Items           int    `json:"items" bson:"items"`
	UpdatedAt       string `json:"updatedAt" bson:"updatedAt"`
}
