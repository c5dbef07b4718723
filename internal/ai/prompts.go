package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ScreenCandidate string
	ParseJob        string
	ParseJobES      string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ScreenCandidate string
	ParseJob        string
	ParseJobES      string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ScreenCandidate: `You are an expert HR recruiter and CV analyst. Your task is to evaluate a candidate's CV against a specific job profile and provide a detailed analysis with confidence scores.

Analysis Guidelines:
1. Evaluate skills match (0-100% confidence)
2. Assess experience relevance (0-100% confidence)
3. Check education requirements (0-100% confidence)
4. Provide overall fit score (0-100%)
5. List strengths and weaknesses
6. Give specific recommendations

Respond in JSON format with the following structure:
{
  "overallScore": number,
  "skillMatches": [
    {
      "skill": string,
      "confidence": number,
      "found": boolean,
      "context": string
    }
  ],
  "experienceScore": number,
  "educationScore": number,
  "reasoning": string,
  "strengths": [string],
  "weaknesses": [string],
  "recommendations": [string]
}`,

	ParseJob: `You are an expert HR professional and job description analyst. Your task is to extract structured information from a job description and organize it into specific fields.

Analyze the description and extract:
1. Job title
2. General job description
3. Required skills (hard skills and soft skills)
4. Preferred skills
5. Educational requirements
6. Experience level (entry/mid/senior/lead)
7. Industry
8. Location
9. Specific responsibilities
10. Additional requirements
11. Benefits offered

Respond in JSON format with the following structure:
{
  "title": "string",
  "description": "string",
  "requiredSkills": ["string"],
  "preferredSkills": ["string"],
  "education": ["string"],
  "experienceLevel": "entry|mid|senior|lead",
  "industry": "string",
  "location": "string",
  "responsibilities": ["string"],
  "requirements": ["string"],
  "benefits": ["string"]
}`,

	ParseJobES: `Eres un experto en recursos humanos y análisis de descripciones de trabajo. Tu tarea es extraer información estructurada de una descripción de trabajo y organizarla en campos específicos.

Analiza la descripción y extrae:
1. Título del puesto
2. Descripción general del trabajo
3. Habilidades requeridas (hard skills y soft skills)
4. Habilidades preferidas
5. Requisitos educativos
6. Nivel de experiencia (entry/mid/senior/lead)
7. Industria
8. Ubicación
9. Responsabilidades específicas
10. Requisitos adicionales
11. Beneficios ofrecidos

Responde en formato JSON con la siguiente estructura:
{
  "title": "string",
  "description": "string",
  "requiredSkills": ["string"],
  "preferredSkills": ["string"],
  "education": ["string"],
  "experienceLevel": "entry|mid|senior|lead",
  "industry": "string",
  "location": "string",
  "responsibilities": ["string"],
  "requirements": ["string"],
  "benefits": ["string"]
}`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ScreenCandidate: `Job Profile:
%s

Candidate CV (%s):
%s

Please analyze this candidate's fit for the position and provide your assessment in the specified JSON format.`,

	ParseJob: `Job Description:
%s

Please analyze this job description and extract the structured information in the specified JSON format.`,

	ParseJobES: `Descripción del Puesto:
%s

Por favor analiza esta descripción de trabajo y extrae la información estructurada en el formato JSON especificado.`,
}

// resolvePrompt returns the first non-empty prompt following the priority:
// file-loaded > config-inline > built-in default
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
