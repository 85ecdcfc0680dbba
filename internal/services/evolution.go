package services

import (
	"strings"

	"github.com/poke-market/api/internal/clients/pokeapi"
)

// ResolveEvolutionChain flattens the recursive evolution payload into the
// shape the client renders. A root with more than one immediate child yields
// the branching form; every branch is followed along its first child only.
func ResolveEvolutionChain(chain pokeapi.ChainLink) EvolutionChain {
	if len(chain.EvolvesTo) > 1 {
		branches := make([][]EvolutionNode, 0, len(chain.EvolvesTo))
		for _, child := range chain.EvolvesTo {
			branches = append(branches, traverseLinear(child))
		}
		return EvolutionChain{
			Branching: true,
			Root:      evolutionNode(chain),
			Branches:  branches,
		}
	}

	return EvolutionChain{
		Branching: false,
		Sequence:  traverseLinear(chain),
	}
}

func traverseLinear(link pokeapi.ChainLink) []EvolutionNode {
	nodes := []EvolutionNode{}
	current := &link
	for current != nil && current.Species.Name != "" {
		nodes = append(nodes, evolutionNode(*current))
		if len(current.EvolvesTo) == 0 {
			break
		}
		current = &current.EvolvesTo[0]
	}
	return nodes
}

func evolutionNode(link pokeapi.ChainLink) EvolutionNode {
	return EvolutionNode{
		Name: strings.TrimSpace(link.Species.Name),
		ID:   pokeapi.SpeciesIDFromURL(link.Species.URL),
	}
}
