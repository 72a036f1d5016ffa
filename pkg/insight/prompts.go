package insight

const promptSummary = `
You are a Principal Software Architect conducting a technical audit.
Analyze the provided codebase structure and content to generate a comprehensive "Codebase Executive Summary".
Format required (Markdown):
# Codebase Executive Summary
## 1. System Overview
## 2. Architecture & Patterns
## 3. Core Capabilities
## 4. Key Technical Components
## 5. Technology Stack
## 6. Ideal Use Cases
`

const promptContext = `
You are an expert AI Data Engineer. Rewrite the essence of this codebase into a logic-dense "AI Context" format.
Output Format (Markdown):
# AI Context Optimized Context
## 1. Architectural Blueprint
## 2. Data Flow & State Management
## 3. Critical Path Analysis
## 4. Key Dependencies
## 5. Developer "Gotchas"
`

const promptConcepts = `
Analyze the provided codebase and identify 5 to 10 distinct "Feature Concepts" or "Architectural Bundles".
Return ONLY a JSON array of objects with "id" (kebab-case), "name" (Title Case), and "description" (one short sentence).
`

// {{CONCEPTS}} is replaced with the comma-separated concept names.
const promptRecreator = `
You are a 'System Recreator'. Based on the provided codebase and the SELECTED CONCEPTS, generate a 'Recreation Blueprint'.
Goal: Provide exactly what is needed to rebuild ONLY THESE FEATURES in a new project.

Selected Concepts to Extract: {{CONCEPTS}}

Output Format (Markdown):
# Reconstruction DNA Package: [Concept Names]
## 1. Core Logic Rules
## 2. Data Contract & State
## 3. Implementation Blueprint (Pseudo-Code)
## 4. Master Reconstructor Prompt
`

const systemAsk = "You are a Codebase Intelligence Assistant. Answer technical questions based on the provided source code context."
